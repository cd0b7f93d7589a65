// Package requestid propagates a per-request identifier through HTTP
// middleware and context for log correlation.
package requestid
