package diagnostics

import (
	"bufio"
	"os"
	"regexp"
	"strconv"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// CompilerSource is the diagnostic source tag for ccsc-compiler records.
const CompilerSource = "ccsc-compiler"

// recordPattern matches one *.err line per spec §4.5:
//
//	^(>>>|***|---)  <Severity>  <Code>  "<Path>"  Line <Line>(<ColStart>,<ColEnd>):  <Message>$
var recordPattern = regexp.MustCompile(
	`^(?:>>>|\*\*\*|---)\s+([A-Za-z]+)\s+(\d+)\s+"([^"\n]*)"\s+Line\s+(\d+)\((\d+),(\d+)\):\s+(.*)$`,
)

// ParseFile reads one *.err file and returns the diagnostics for every
// well-formed record whose <Path> refers to an existing file, keyed by that
// absolute path. Unmatched lines and records naming a nonexistent file are
// silently dropped.
func ParseFile(path string) (map[string][]protocol.Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	byPath := make(map[string][]protocol.Diagnostic)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		diag, recordPath, ok := parseRecord(scanner.Text())
		if !ok {
			continue
		}
		byPath[recordPath] = append(byPath[recordPath], diag)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return byPath, nil
}

func parseRecord(line string) (protocol.Diagnostic, string, bool) {
	m := recordPattern.FindStringSubmatch(line)
	if m == nil {
		return protocol.Diagnostic{}, "", false
	}

	severityToken, codeToken, path, lineToken, colStartToken, colEndToken, message := m[1], m[2], m[3], m[4], m[5], m[6], m[7]

	if _, err := os.Stat(path); err != nil {
		return protocol.Diagnostic{}, "", false
	}

	lineNum, err := strconv.ParseUint(lineToken, 10, 32)
	if err != nil {
		return protocol.Diagnostic{}, "", false
	}
	colStart, err := strconv.ParseUint(colStartToken, 10, 32)
	if err != nil {
		return protocol.Diagnostic{}, "", false
	}
	colEnd, err := strconv.ParseUint(colEndToken, 10, 32)
	if err != nil {
		return protocol.Diagnostic{}, "", false
	}
	code, err := strconv.ParseInt(codeToken, 10, 32)
	if err != nil {
		return protocol.Diagnostic{}, "", false
	}

	row := protocol.UInteger(lineNum - 1)
	severity := severityFromToken(severityToken)
	source := CompilerSource
	codeValue := protocol.Integer(code)

	diag := protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: row, Character: protocol.UInteger(colStart)},
			End:   protocol.Position{Line: row, Character: protocol.UInteger(colEnd)},
		},
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Integer: &codeValue},
		Source:   &source,
		Message:  message,
	}
	return diag, path, true
}

func severityFromToken(token string) protocol.DiagnosticSeverity {
	switch token {
	case "Info":
		return protocol.DiagnosticSeverityInformation
	case "Warning":
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityError
	}
}
