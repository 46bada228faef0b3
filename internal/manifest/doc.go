// Package manifest records what a registration run did.
//
// A Manifest is written as manifest.json into the run's output directory
// once both chains have finished. It lists every planned job with its
// status, the artifacts it produced and the checksum of its composed
// transform, so a run can be audited or resumed by hand.
//
// Key concepts:
//   - Manifest: one run, identified by a random RunID
//   - ChainEntry: the outcome of the left or right chain
//   - JobEntry: one pairwise registration and its artifacts
//   - Store: loads and saves manifests through fsops.FS
package manifest
