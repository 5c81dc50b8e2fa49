// Package httpserver serves the mdkeep HTTP API.
//
// It is built on net/http: method-qualified ServeMux patterns route to
// the handler package, wrapped in a middleware chain of panic recovery,
// request IDs, CORS, per-IP rate limiting (golang.org/x/time/rate),
// request metrics and audit logging. Probe endpoints (/health, /ready,
// /metrics) only get recovery and request IDs.
package httpserver
