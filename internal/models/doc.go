// Package models defines the records exchanged between the roster store and its consumers.
//
// The package contains two categories of types:
//
// 1. Canonical records: the shapes every consumer renders
//   - [Student] : A ranked student with its ordered tracks
//   - [Track] : A learning track a student can be enrolled in
//
// 2. Raw store rows: the shapes repositories return before normalization
//   - [StudentRow] : Either canonical (tracks already flattened) or nested (join rows)
//   - [Enrollment] : A student/track join row wrapping its [Track] under the "track" relation key
//
// [Range] describes the inclusive, zero-based offset window applied to every paginated query.
package models
