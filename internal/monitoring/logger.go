package monitoring

import "log"

// Logf is the package-level diagnostic logger used by the reconstruction
// and evaluation packages. It defaults to log.Printf and may be replaced
// by SetLogger; tests usually mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf receives per-track and per-cluster decisions. It is muted until
// SetVerbose(true) routes it through Logf.
var Debugf func(format string, v ...interface{}) = func(string, ...interface{}) {}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose enables or mutes Debugf.
func SetVerbose(on bool) {
	if !on {
		Debugf = func(string, ...interface{}) {}
		return
	}
	Debugf = func(format string, v ...interface{}) { Logf(format, v...) }
}
