package quiz

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmpty is returned when the generator produced no output.
	ErrEmpty = errors.New("generator returned an empty response")
	// ErrNoJSON is returned when the output holds no JSON value, e.g. prose.
	ErrNoJSON = errors.New("generator response contains no JSON")
)

var fenceRegex = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// maxScanStarts bounds how many '{' / '[' offsets are tried in prose.
const maxScanStarts = 64

// Parse extracts the first JSON value from generator text. Bare JSON,
// Markdown code fences and JSON embedded in prose are accepted. Numbers are
// decoded as json.Number.
func Parse(text string) (any, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, ErrEmpty
	}

	if v, err := decodeAll(s); err == nil {
		return v, nil
	}

	for _, m := range fenceRegex.FindAllStringSubmatch(s, -1) {
		if v, err := decodeAll(strings.TrimSpace(m[1])); err == nil {
			return v, nil
		}
	}

	tries := 0
	for i := 0; i < len(s) && tries < maxScanStarts; i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		tries++
		if v, err := decodeFirst(s[i:]); err == nil {
			return v, nil
		}
	}
	return nil, ErrNoJSON
}

// decodeAll decodes s as exactly one JSON value.
func decodeAll(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// decodeFirst decodes the leading JSON object or array of s, ignoring the rest.
func decodeFirst(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	}
	return nil, errors.New("not an object or array")
}
