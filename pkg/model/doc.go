// Package model holds the client-side view of device parameters.
//
// A Parameter is an immutable snapshot of one property: its metadata,
// its update state and a map of named item values. Snapshots are never
// mutated in place. Applying a protocol update produces a fresh
// Parameter, which is what lets the store publish parameters through
// notify cells without locking readers.
//
// The five parameter kinds mirror the protocol's vector families:
//
//	TextVector    string items
//	NumberVector  float64 items with format/min/max/step metadata
//	SwitchVector  On/Off items constrained by a selection rule
//	LightVector   read-only status indicator items
//	BlobVector    binary payload items
//
// Pure functions drive the lifecycle: FromDef builds a Parameter from
// a definition, ApplyUpdate folds set/new updates into a new snapshot,
// Matches compares a snapshot against desired values, and NewCommand
// builds the wire command that requests those values.
package model
