// Package api exposes the scheduling engine over HTTP with chi. The
// handlers are deliberately thin: decode, validate, call the service,
// map sentinel errors to status codes. No scheduling rule lives here.
package api
