// Package roster decides which roster query runs and shapes its results for display.
//
// # Input Mode
//
// [State] holds the caller's search text, selected track, and page. It is an immutable value;
// every change goes through [Reduce], a pure function from (State, [Action]) to State.
// Search text and track selection are mutually exclusive by construction: setting one clears the other.
//
// [State.Mode] derives the [Mode] on demand:
//   - a selected track → [FilterByTrack]
//   - blank search text → [Default]
//   - all-digit search text → [SearchByPhone]
//   - anything else → [SearchByName]
//
// # Dispatch
//
// [Router.Dispatch] captures a generation number for a state; [Router.Fetch] runs exactly one
// [Store] call for that ticket and returns a tagged [Result]. Store failures never escape Fetch:
// they are logged, counted, and carried in [Result.Err] so "no matches" and "store unavailable" stay distinct.
// [Router.Current] tells consumers whether a result still belongs to the newest dispatch.
//
// # Shaping
//
// [Normalize] maps raw rows (flat or nested join) into canonical students.
// [PageRange] and [GlobalRank] translate between pages and absolute positions.
package roster
