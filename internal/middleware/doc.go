// Package middleware provides HTTP middleware for the transcoder API.
//
// It includes:
//   - Request logging in W3C Extended Log Format with request ids
//   - Prometheus request metrics labelled by route template
//   - API key authentication against a bcrypt hash
package middleware
