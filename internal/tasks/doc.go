// Package tasks runs long-lived roster operations with real-time progress reporting.
//
// # Operations
//
// [ExportEngine] walks the leaderboard one page at a time through a [roster.Router]:
//
//  1. [ExportEngine.Collect] : every page of one query, ranked
//     - Pages are requested at a fixed rate
//     - Stops at the first partial page or at MaxPages
//
//  2. [ExportEngine.Export] : Collect, then render and write one report file
//
//  3. [ExportEngine.BulkExport] : one report per track, written concurrently
//     - A worker pool shares a single rate limiter
//     - A manifest summarizes the files written and any failures
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// Updates use select with default, so a slow or absent reader never stalls an export.
package tasks
