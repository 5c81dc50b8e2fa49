// Package connection provides the HTTP client mdkeep-cli uses to reach
// an mdkeep server.
//
// Every JSON response carries the server's envelope; ParseResponse
// unwraps its data member and turns error envelopes into *APIError.
package connection
