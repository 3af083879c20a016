package lspext

import protocol "github.com/tliron/glsp/protocol_3_16"

// UriDiagnostics pairs a document URI with the full diagnostic set that
// should replace whatever the client currently has for that URI.
type UriDiagnostics struct {
	URI         protocol.DocumentUri
	Diagnostics []protocol.Diagnostic
}

// Response is the internal envelope the notification handlers in
// internal/server (didOpen, didChange, didChangeWatchedFiles) build before
// glsp traffic is produced: info-level log lines, plus an optional
// publishDiagnostics notification (spec §4.8).
type Response struct {
	Logs           []string
	UriDiagnostics []UriDiagnostics
}

// WithLog appends a log line and returns the receiver, for chaining at a
// handler's return statement.
func (r *Response) WithLog(line string) *Response {
	r.Logs = append(r.Logs, line)
	return r
}

// WithDiagnostics appends a uriDiagnostics entry and returns the receiver.
func (r *Response) WithDiagnostics(uri protocol.DocumentUri, diags []protocol.Diagnostic) *Response {
	r.UriDiagnostics = append(r.UriDiagnostics, UriDiagnostics{URI: uri, Diagnostics: diags})
	return r
}
