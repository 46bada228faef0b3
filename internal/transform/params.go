// Package transform reads and rewrites elastix transform parameter files.
//
// A parameter file is a list of "(Key value ...)" lines. String values are
// quoted, numbers are bare, and "//" starts a comment. Chaining a transform
// onto a previous one is done by pointing InitialTransformParametersFileName
// at the previous file; elastix and transformix then apply the initial
// transform first and this one on top.
package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// Well-known parameter keys and values.
const (
	KeyTransform              = "Transform"
	KeyInitialTransform       = "InitialTransformParametersFileName"
	KeyHowToCombineTransforms = "HowToCombineTransforms"

	NoInitialTransform = "NoInitialTransform"
	CombineCompose     = "Compose"
)

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// Entry is one "(Key values...)" line.
type Entry struct {
	Key    string
	Values []string
}

// Parameters is a parsed parameter file in file order.
type Parameters struct {
	Entries []Entry
}

// Parse reads a parameter file.
func Parse(data []byte) (*Parameters, error) {
	p := &Parameters{}
	for i, line := range strings.Split(string(data), "\n") {
		entry, ok, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Text: strings.TrimSpace(line), Msg: err.Error()}
		}
		if ok {
			p.Entries = append(p.Entries, entry)
		}
	}
	return p, nil
}

// Get returns the values of the last entry named key.
func (p *Parameters) Get(key string) ([]string, bool) {
	for i := len(p.Entries) - 1; i >= 0; i-- {
		if p.Entries[i].Key == key {
			return p.Entries[i].Values, true
		}
	}
	return nil, false
}

// String returns the first value of key, or "" if absent.
func (p *Parameters) String(key string) string {
	values, ok := p.Get(key)
	if !ok || len(values) == 0 {
		return ""
	}
	return values[0]
}

// parseLine parses a single line. ok is false for blank and comment-only lines.
func parseLine(line string) (Entry, bool, error) {
	text := strings.TrimSpace(stripComment(line))
	if text == "" {
		return Entry{}, false, nil
	}
	if !strings.HasPrefix(text, "(") || !strings.HasSuffix(text, ")") {
		return Entry{}, false, fmt.Errorf("expected (Key value ...)")
	}

	tokens, err := tokenize(text[1 : len(text)-1])
	if err != nil {
		return Entry{}, false, err
	}
	if len(tokens) == 0 {
		return Entry{}, false, fmt.Errorf("missing key")
	}
	return Entry{Key: tokens[0], Values: tokens[1:]}, true, nil
}

// stripComment removes a trailing // comment that is not inside quotes.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			inQuote = !inQuote
		case !inQuote && line[i] == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}

func tokenize(s string) ([]string, error) {
	var tokens []string
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '"':
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated string")
			}
			tokens = append(tokens, s[i+1:i+1+end])
			i += end + 2
		default:
			j := i
			for j < len(s) && s[j] != ' ' && s[j] != '\t' && s[j] != '"' {
				j++
			}
			tokens = append(tokens, s[i:j])
			i = j
		}
	}
	return tokens, nil
}

// FormatEntry renders an entry as a parameter line. Numbers stay bare,
// everything else is quoted.
func FormatEntry(e Entry) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(e.Key)
	for _, v := range e.Values {
		b.WriteString(" ")
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			b.WriteString(v)
		} else {
			b.WriteString(`"` + v + `"`)
		}
	}
	b.WriteString(")")
	return b.String()
}
