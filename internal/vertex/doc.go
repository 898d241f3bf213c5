// Package vertex owns secondary-vertex reconstruction from straight-line
// tracks.
//
// Responsibilities: track geometry (Line), greedy track pairing
// (GreedyVertexFinder), iterative outlier-rejecting vertex fitting
// (RobustVertexFitter), feature-space clustering of tracks
// (FeatureClusterer) and cluster-to-vertex resolution
// (PerClusterVertexFitter). The SSVF and CSSVF types chain these into the
// two reconstruction pipelines.
//
// Every component takes its parameters at construction and holds no state
// between calls, so one instance may serve many jets concurrently.
// Expected "no vertex" results are reported through Outcome values;
// errors are reserved for invalid input and minimizer faults.
package vertex
