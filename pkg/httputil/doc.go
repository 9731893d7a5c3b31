// Package httputil provides the HTTP plumbing of the preview server.
//
// # Overview
//
//   - [RequestID]: tags each request with an ID, reusing X-Request-ID
//   - [Observe]: reports requests to the server hooks and logs them
//   - [WritePNG]: writes an image with an ETag so clients can revalidate
//   - [WriteError]: maps kiticon error codes to HTTP status codes
//
// # Errors
//
// Failures are written as JSON:
//
//	{"code": "INVALID_SYMBOL", "error": "symbol name contains path characters: \"../x\""}
//
// Errors without a kiticon code are reported as 500 with a generic message,
// so internal details never reach the client.
package httputil
