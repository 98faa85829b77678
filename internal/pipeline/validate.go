package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

const defaultMaxMismatches = 20

var crlf = []byte("\r\n")

// Mismatch is one line that differs between the answers and the results.
// A missing line is reported as an empty string.
type Mismatch struct {
	Line     int    `json:"line"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Report is the outcome of comparing a results file with an answers file.
type Report struct {
	Equal         bool       `json:"equal"`
	ExpectedLines int        `json:"expected_lines"`
	ActualLines   int        `json:"actual_lines"`
	Mismatches    []Mismatch `json:"mismatches,omitempty"`
	Truncated     bool       `json:"truncated,omitempty"` // more mismatches exist than reported

	// TrailingNewline is set when every line matches and the files differ
	// only in how the last line is terminated.
	TrailingNewline bool `json:"trailing_newline,omitempty"`
	// LineEndings is set when exactly one side uses CRLF line endings.
	LineEndings     bool `json:"line_endings,omitempty"`
}

// Validate compares results against answers byte for byte. When they differ
// the report lists up to maxMismatches differing lines (a default is used
// when maxMismatches <= 0).
func Validate(results, answers io.Reader, maxMismatches int) (Report, error) {
	if maxMismatches <= 0 {
		maxMismatches = defaultMaxMismatches
	}

	actual, err := io.ReadAll(results)
	if err != nil {
		return Report{}, fmt.Errorf("read results: %w", err)
	}
	expected, err := io.ReadAll(answers)
	if err != nil {
		return Report{}, fmt.Errorf("read answers: %w", err)
	}

	expectedLines := splitLines(expected)
	actualLines := splitLines(actual)
	report := Report{
		Equal:         bytes.Equal(actual, expected),
		ExpectedLines: len(expectedLines),
		ActualLines:   len(actualLines),
	}
	if report.Equal {
		return report, nil
	}
	report.LineEndings = bytes.Contains(expected, crlf) != bytes.Contains(actual, crlf)

	n := max(len(expectedLines), len(actualLines))
	for i := 0; i < n; i++ {
		var want, got string
		if i < len(expectedLines) {
			want = expectedLines[i]
		}
		if i < len(actualLines) {
			got = actualLines[i]
		}
		if want == got {
			continue
		}
		if len(report.Mismatches) == maxMismatches {
			report.Truncated = true
			break
		}
		report.Mismatches = append(report.Mismatches, Mismatch{Line: i + 1, Expected: want, Actual: got})
	}
	report.TrailingNewline = len(report.Mismatches) == 0
	return report, nil
}

func splitLines(b []byte) []string {
	s := strings.TrimSuffix(string(b), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
