package detect

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseJSON decodes text as a single JSON value. Numbers decode as
// json.Number so issue numbers survive unchanged. Trailing data after the
// value is an error.
func ParseJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return v, nil
}

// Verify reports whether v is a JSON array of match objects and returns the
// matches when it is. Every element must be an object with a numeric "issue"
// and a "likelihood" of high, medium, or low in any case. "reason" is
// optional and not type-checked. One bad element rejects the whole array.
//
// Verify never panics on malformed input.
func Verify(v any) ([]Match, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}

	matches := make([]Match, 0, len(arr))
	for _, elem := range arr {
		obj, ok := elem.(map[string]any)
		if !ok || obj == nil {
			return nil, false
		}

		issue, ok := numberOf(obj["issue"])
		if !ok {
			return nil, false
		}

		s, ok := obj["likelihood"].(string)
		if !ok || !Likelihood(s).Valid() {
			return nil, false
		}

		matches = append(matches, Match{
			Issue:      issue,
			Likelihood: Likelihood(s),
			Reason:     reasonOf(obj["reason"]),
		})
	}
	return matches, true
}

// Valid is Verify without the matches.
func Valid(v any) bool {
	_, ok := Verify(v)
	return ok
}

func numberOf(v any) (json.Number, bool) {
	switch n := v.(type) {
	case json.Number:
		if _, err := n.Float64(); err != nil {
			return "", false
		}
		return n, true
	case float64:
		return json.Number(strconv.FormatFloat(n, 'f', -1, 64)), true
	case int:
		return json.Number(strconv.Itoa(n)), true
	case int64:
		return json.Number(strconv.FormatInt(n, 10)), true
	default:
		return "", false
	}
}

func reasonOf(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	default:
		// Non-string reasons are kept in their JSON form.
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(r); err != nil {
			return fmt.Sprint(r)
		}
		return strings.TrimRight(buf.String(), "\n")
	}
}

// stripFences removes one surrounding markdown code fence, if present.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}
