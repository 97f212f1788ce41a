// Package diag defines the diagnostic model shared by all compiler
// phases.
//
// Diagnostic is the central record: a Severity, a stable numeric Code,
// a message, a primary source.Span and optional secondary notes.
// Producers emit through a Reporter so they stay decoupled from
// storage; BagReporter aggregates into a Bag, which supports sorting
// and deduplication for deterministic output.
//
// Package diag performs no formatting or IO. Rendering lives in
// internal/diagfmt; orchestration lives in the driver.
package diag
