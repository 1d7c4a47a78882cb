//go:build traceassert

package trace

// debugChecks enables the capacity precondition check in SaveSnapshot.
// Test builds enable it with -tags traceassert; release builds compile it
// out entirely.
const debugChecks = true
