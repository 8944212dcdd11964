package model

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
	"strings"
)

// AnswerKind tells which field of an Answer holds the value.
type AnswerKind string

const (
	AnswerChoice  AnswerKind = "choice"
	AnswerText    AnswerKind = "text"
	AnswerMatches AnswerKind = "matches"
	// AnswerInvalid marks a value whose shape fits no question kind.
	AnswerInvalid AnswerKind = "invalid"
)

// Answer is a learner's response to one question.
type Answer struct {
	Kind    AnswerKind
	Choice  int
	Text    string
	Matches map[int]string
}

// ChoiceAnswer answers a multiple choice question.
func ChoiceAnswer(index int) Answer {
	return Answer{Kind: AnswerChoice, Choice: index}
}

// TextAnswer answers a fill-in or identification question.
func TextAnswer(text string) Answer {
	return Answer{Kind: AnswerText, Text: text}
}

// MatchesAnswer answers a matching question with pair index to chosen right value.
func MatchesAnswer(m map[int]string) Answer {
	return Answer{Kind: AnswerMatches, Matches: maps.Clone(m)}
}

// WithMatch returns a copy of a with pair set to right. A non-matching
// answer is replaced.
func (a Answer) WithMatch(pair int, right string) Answer {
	m := map[int]string{}
	if a.Kind == AnswerMatches {
		m = maps.Clone(a.Matches)
		if m == nil {
			m = map[int]string{}
		}
	}
	m[pair] = right
	return Answer{Kind: AnswerMatches, Matches: m}
}

// IsBlank reports whether a carries no usable response.
func (a Answer) IsBlank() bool {
	switch a.Kind {
	case AnswerChoice:
		return false
	case AnswerText:
		return strings.TrimSpace(a.Text) == ""
	case AnswerMatches:
		for _, v := range a.Matches {
			if v != "" {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// MarshalJSON encodes a as a number, a string or an object keyed by pair index.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerChoice:
		return json.Marshal(a.Choice)
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerMatches:
		m := make(map[string]string, len(a.Matches))
		for k, v := range a.Matches {
			m[strconv.Itoa(k)] = v
		}
		return json.Marshal(m)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON never fails on a well-formed JSON value; shapes that fit no
// question kind decode to AnswerInvalid.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*a = DecodeAnswer(v)
	return nil
}

// DecodeAnswer converts an untyped value (decoded JSON or YAML) to an Answer.
func DecodeAnswer(v any) Answer {
	if i, ok := AsInt(v); ok {
		return ChoiceAnswer(i)
	}
	switch t := v.(type) {
	case string:
		return TextAnswer(t)
	case map[string]any:
		m := make(map[int]string, len(t))
		for k, val := range t {
			idx, err := strconv.Atoi(strings.TrimSpace(k))
			if err != nil || idx < 0 {
				return Answer{Kind: AnswerInvalid}
			}
			s, ok := val.(string)
			if !ok {
				return Answer{Kind: AnswerInvalid}
			}
			m[idx] = s
		}
		return Answer{Kind: AnswerMatches, Matches: m}
	case map[any]any:
		m := make(map[int]string, len(t))
		for k, val := range t {
			idx, ok := AsInt(k)
			if !ok {
				if ks, isStr := k.(string); isStr {
					n, err := strconv.Atoi(strings.TrimSpace(ks))
					idx, ok = n, err == nil
				}
			}
			s, isStr := val.(string)
			if !ok || idx < 0 || !isStr {
				return Answer{Kind: AnswerInvalid}
			}
			m[idx] = s
		}
		return Answer{Kind: AnswerMatches, Matches: m}
	case []any:
		m := make(map[int]string, len(t))
		for i, val := range t {
			switch s := val.(type) {
			case nil:
			case string:
				m[i] = s
			default:
				return Answer{Kind: AnswerInvalid}
			}
		}
		return Answer{Kind: AnswerMatches, Matches: m}
	}
	return Answer{Kind: AnswerInvalid}
}

// AsInt converts an integral number from a JSON or YAML decoder to int.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return AsInt(f)
	}
	return 0, false
}

// Answers maps question id to the learner's answer. A missing id is unanswered.
type Answers map[string]Answer

// Clone returns a deep copy of a.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		if v.Matches != nil {
			v.Matches = maps.Clone(v.Matches)
		}
		out[k] = v
	}
	return out
}

// With returns a copy of a with id set to ans.
func (a Answers) With(id string, ans Answer) Answers {
	out := a.Clone()
	out[id] = ans
	return out
}

// Answered reports whether id has a non-blank answer.
func (a Answers) Answered(id string) bool {
	ans, ok := a[id]
	return ok && !ans.IsBlank()
}
