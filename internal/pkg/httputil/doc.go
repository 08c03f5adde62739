// Package httputil provides shared JSON request/response helpers for API
// handlers. All handlers respond through these helpers so error envelopes
// stay consistent and internal errors are never leaked to clients.
package httputil
