// Package server exposes the leaderboard over HTTP as JSON.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] and [Recover] are installed by [New].
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Endpoints
//
//	GET /students?q=&track=&page=  → one ranked page
//	GET /tracks                    → the track catalog
//	GET /metrics                   → Prometheus exposition
//
// Every /students request dispatches its own fetch, so responses never go stale.
// A store failure is reported as 503 with {"error":"store unavailable"}; a query
// with no matches is a 200 with an empty students array.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
