package vertex

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func mustFinder(t *testing.T, p FinderParams) *GreedyVertexFinder {
	t.Helper()
	f, err := NewGreedyVertexFinder(p)
	if err != nil {
		t.Fatalf("NewGreedyVertexFinder: %v", err)
	}
	return f
}

// mixedJet has four tracks from a common vertex interleaved with two
// tracks that pass far from it and from each other.
func mixedJet() []Line {
	sv := r3.Vec{X: 0.02, Y: 0.02, Z: 10}
	return []Line{
		through(sv, 0.1, 0),
		MustLine(r3.Vec{X: 4}, polar(0.2, 1)),
		through(sv, 0.2, 2),
		through(sv, 0.3, 4),
		MustLine(r3.Vec{Y: -6}, polar(0.15, 3)),
		through(sv, 0.35, 5),
	}
}

func TestNewGreedyVertexFinder_Invalid(t *testing.T) {
	for _, p := range []FinderParams{
		{DistanceThreshold: 0},
		{DistanceThreshold: -1},
		{DistanceThreshold: math.Inf(1)},
		{DistanceThreshold: 0.1, RejectPolicy: RejectPolicy(9)},
	} {
		if _, err := NewGreedyVertexFinder(p); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%+v: expected ErrInvalidInput, got %v", p, err)
		}
	}
}

func TestFindCouples_Empty(t *testing.T) {
	f := mustFinder(t, DefaultFinderParams())
	if _, err := f.FindCouples(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFindCouples_SingleTrack(t *testing.T) {
	f := mustFinder(t, DefaultFinderParams())
	couples, err := f.FindCouples([]Line{MustLine(r3.Vec{}, zAxis)})
	if err != nil {
		t.Fatalf("FindCouples: %v", err)
	}
	if len(couples) != 0 {
		t.Errorf("expected no couples, got %d", len(couples))
	}
}

func TestFindCouples_ParallelPair(t *testing.T) {
	a := MustLine(r3.Vec{}, zAxis)
	b := MustLine(r3.Vec{X: 0.001}, zAxis)

	f := mustFinder(t, DefaultFinderParams())
	couples, err := f.FindCouples([]Line{a, b})
	if err != nil {
		t.Fatalf("FindCouples: %v", err)
	}
	if len(couples) != 1 {
		t.Fatalf("expected 1 couple, got %d", len(couples))
	}
	if couples[0] != (Couple{a, b}) {
		t.Errorf("expected couple (a, b), got %+v", couples[0])
	}
}

func TestFindCouples_Properties(t *testing.T) {
	lines := mixedJet()
	f := mustFinder(t, DefaultFinderParams())

	couples, err := f.FindCouples(lines)
	if err != nil {
		t.Fatalf("FindCouples: %v", err)
	}
	if len(couples) != 2 {
		t.Fatalf("expected 2 couples, got %d", len(couples))
	}

	seen := make(map[Line]int)
	for _, c := range couples {
		if d := c[0].LineDistance(c[1]); d >= f.Params().DistanceThreshold {
			t.Errorf("couple distance %v not below threshold", d)
		}
		seen[c[0]]++
		seen[c[1]]++
	}
	for l, n := range seen {
		if n != 1 {
			t.Errorf("track %v appears in %d couples", l.Origin(), n)
		}
	}
	for _, outlier := range []Line{lines[1], lines[4]} {
		if seen[outlier] != 0 {
			t.Errorf("outlier %v should not be coupled", outlier.Origin())
		}
	}

	again, err := f.FindCouples(lines)
	if err != nil {
		t.Fatalf("FindCouples: %v", err)
	}
	if !reflect.DeepEqual(couples, again) {
		t.Error("expected identical couples on repeated calls")
	}
	if got := Flatten(couples); len(got) != 4 || got[0] != couples[0][0] || got[3] != couples[1][1] {
		t.Errorf("unexpected flatten order %v", got)
	}
}

func TestFindCouples_OrderSensitive(t *testing.T) {
	// Pairwise distances: a-b 0.004, a-c 0.005, b-c 0.001.
	a := MustLine(r3.Vec{}, zAxis)
	b := MustLine(r3.Vec{X: 0.004}, zAxis)
	c := MustLine(r3.Vec{X: 0.005}, zAxis)
	f := mustFinder(t, DefaultFinderParams())

	fwd, err := f.FindCouples([]Line{a, b, c})
	if err != nil {
		t.Fatalf("FindCouples: %v", err)
	}
	rev, err := f.FindCouples([]Line{c, b, a})
	if err != nil {
		t.Fatalf("FindCouples: %v", err)
	}
	if len(fwd) != 1 || fwd[0] != (Couple{a, b}) {
		t.Errorf("forward: expected (a, b), got %+v", fwd)
	}
	if len(rev) != 1 || rev[0] != (Couple{c, b}) {
		t.Errorf("reverse: expected (c, b), got %+v", rev)
	}
}

func TestFindCouples_RejectPolicy(t *testing.T) {
	// a's nearest is b, beyond the threshold; b and c pair.
	a := MustLine(r3.Vec{X: -1}, zAxis)
	b := MustLine(r3.Vec{}, zAxis)
	c := MustLine(r3.Vec{X: 0.001}, zAxis)
	lines := []Line{a, b, c}

	keep := mustFinder(t, FinderParams{DistanceThreshold: DefaultDistanceThreshold, RejectPolicy: KeepNearest})
	got, err := keep.FindCouples(lines)
	if err != nil {
		t.Fatalf("FindCouples: %v", err)
	}
	if len(got) != 1 || got[0] != (Couple{b, c}) {
		t.Errorf("keep_nearest: expected (b, c), got %+v", got)
	}

	consume := mustFinder(t, FinderParams{DistanceThreshold: DefaultDistanceThreshold, RejectPolicy: ConsumeNearest})
	got, err = consume.FindCouples(lines)
	if err != nil {
		t.Fatalf("FindCouples: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("consume_nearest: expected no couples, got %+v", got)
	}
}

func TestParseRejectPolicy(t *testing.T) {
	for _, p := range []RejectPolicy{KeepNearest, ConsumeNearest} {
		got, err := ParseRejectPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("round trip %v: got %v, %v", p, got, err)
		}
	}
	if got, err := ParseRejectPolicy(""); err != nil || got != KeepNearest {
		t.Errorf("empty: expected keep_nearest, got %v, %v", got, err)
	}
	if _, err := ParseRejectPolicy("drop_all"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
