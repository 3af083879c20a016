// Package lspext carries the small pieces glue code needs on top of raw
// glsp/protocol_3_16 types: the server's integer error taxonomy and the
// {logs, uriDiagnostics} response envelope the notification handlers in
// internal/server produce internally before it is translated into LSP traffic.
package lspext

import "fmt"

// Code is the integer server-error taxonomy from spec §6/§7.
type Code int

const (
	// CodeInvalidURI marks a URI that is not file-scheme or failed to parse.
	CodeInvalidURI Code = 1
	// CodeNoSyntaxTree marks an operation that needed a tree that is absent.
	CodeNoSyntaxTree Code = 3
	// CodeLookupFailure marks an index/lookup miss against known documents.
	CodeLookupFailure Code = 4
	// CodeMcpParse marks a failure parsing the project's .mcp descriptor.
	CodeMcpParse Code = 5
	// CodeFileIO marks a file read/byte-manipulation failure.
	CodeFileIO Code = 6
	// CodePositionOutOfRange marks a malformed client edit position.
	CodePositionOutOfRange Code = 9
)

// Error pairs a server error code with a human-readable reason, the Go
// analogue of the prototype's create_server_error helper.
type Error struct {
	Code   Code
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Reason)
}

// Newf builds an *Error with a formatted reason.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Reason: fmt.Sprintf(format, args...)}
}
