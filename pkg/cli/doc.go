// Package cli holds the small helpers shared by the command line entry
// points: error types, signal wiring and output formatting.
package cli
