// Package introspection calls an RFC 7662 token introspection endpoint and
// decodes its answer.
//
// The Client posts the bearer token as a form-encoded body and returns the
// raw response body. It never interprets the HTTP status: a non-2xx answer is
// logged and counted but its body is still handed back for decoding. Decode
// turns that body into a Response, treating anything but a JSON object as
// unreadable.
//
// An optional Breaker (sony/gobreaker) can guard the call. An open breaker
// fails immediately with ErrCircuitOpen; nothing is retried.
package introspection
