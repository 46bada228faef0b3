package transform

import (
	"strings"
)

// ComposedFileName is the chained parameter file written next to each
// registration result.
const ComposedFileName = "TransformParameters.composed.txt"

// SetValue replaces every line defining key with a line holding values.
// If key is not defined, the line is appended. Other lines, including
// comments and formatting, are left untouched.
func SetValue(data []byte, key string, values ...string) []byte {
	replacement := FormatEntry(Entry{Key: key, Values: values})

	lines := strings.Split(string(data), "\n")
	found := false
	for i, line := range lines {
		entry, ok, err := parseLine(line)
		if err != nil || !ok || entry.Key != key {
			continue
		}
		lines[i] = replacement
		found = true
	}

	out := strings.Join(lines, "\n")
	if !found {
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += replacement + "\n"
	}
	return []byte(out)
}

// Compose chains data onto the transform stored at initial. An empty initial
// marks data as the first transform of a chain.
func Compose(data []byte, initial string) []byte {
	if initial == "" {
		initial = NoInitialTransform
	}
	data = SetValue(data, KeyInitialTransform, initial)
	return SetValue(data, KeyHowToCombineTransforms, CombineCompose)
}
