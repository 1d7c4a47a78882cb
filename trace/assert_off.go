//go:build !traceassert

package trace

const debugChecks = false
