package quiz

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pavelanni/quizforge/internal/model"
)

// Issue describes one problem found in generator output.
type Issue struct {
	Index   int    `json:"index"` // question position, -1 for the payload itself
	ID      string `json:"id,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Index < 0 {
		return fmt.Sprintf("payload: %s: %s", i.Field, i.Message)
	}
	if i.ID != "" {
		return fmt.Sprintf("question %d (%s): %s: %s", i.Index+1, i.ID, i.Field, i.Message)
	}
	return fmt.Sprintf("question %d: %s: %s", i.Index+1, i.Field, i.Message)
}

// Report summarizes validation of a payload.
type Report struct {
	Total  int     `json:"total"`
	Valid  int     `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// OK reports whether the payload validated without issues.
func (r Report) OK() bool {
	return len(r.Issues) == 0
}

// String renders the report for the diagnostic channel.
func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d of %d questions valid", r.Valid, r.Total)
	for _, is := range r.Issues {
		sb.WriteString("\n- ")
		sb.WriteString(is.String())
	}
	return sb.String()
}

func (r *Report) add(index int, id, field, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Index:   index,
		ID:      id,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validate converts an untyped payload into a quiz. Only questions that pass
// every rule are returned; everything else is listed in the report. Accepted
// shapes are {"questions": [...]}, {"quiz": {"questions": [...]}} and a bare
// array of questions. Unknown fields are ignored.
func Validate(payload any) (model.Quiz, Report) {
	var rep Report
	items, ok := questionList(payload)
	if !ok {
		rep.add(-1, "", "questions", "expected an array of questions")
		return model.Quiz{}, rep
	}
	rep.Total = len(items)
	if len(items) == 0 {
		rep.add(-1, "", "questions", "no questions")
		return model.Quiz{}, rep
	}

	out := model.Quiz{Questions: make([]model.Question, 0, len(items))}
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		q, ok := validateQuestion(i, item, &rep)
		if !ok {
			continue
		}
		if seen[q.ID] {
			rep.add(i, q.ID, "id", "duplicate id")
			continue
		}
		seen[q.ID] = true
		out.Questions = append(out.Questions, q)
	}
	rep.Valid = len(out.Questions)
	return out, rep
}

func questionList(payload any) ([]any, bool) {
	switch v := payload.(type) {
	case []any:
		return v, true
	case map[string]any:
		if qs, ok := v["questions"]; ok {
			list, ok := qs.([]any)
			return list, ok
		}
		if inner, ok := v["quiz"]; ok {
			return questionList(normalizeMap(inner))
		}
	case map[any]any:
		return questionList(normalizeMap(v))
	}
	return nil, false
}

// normalizeMap turns YAML-style map[any]any into map[string]any.
func normalizeMap(v any) any {
	m, ok := v.(map[any]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[fmt.Sprint(k)] = val
	}
	return out
}

func validateQuestion(i int, item any, rep *Report) (model.Question, bool) {
	obj, ok := normalizeMap(item).(map[string]any)
	if !ok {
		rep.add(i, "", "question", "expected an object")
		return model.Question{}, false
	}
	before := len(rep.Issues)

	q := model.Question{}
	q.ID = idField(obj["id"])
	if q.ID == "" {
		rep.add(i, "", "id", "required")
	}

	typ, _ := obj["type"].(string)
	q.Type = model.QuestionType(strings.TrimSpace(typ))
	if !q.Type.IsValid() {
		rep.add(i, q.ID, "type", "unknown question type %q (want one of %v)", typ, model.QuestionTypes)
	}

	q.Prompt = requiredString(i, q.ID, obj, "prompt", rep)
	if v, present := obj["explanation"]; present && v != nil {
		s, ok := v.(string)
		if !ok {
			rep.add(i, q.ID, "explanation", "must be a string")
		}
		q.Explanation = s
	}

	switch {
	case q.Type == model.TypeMCQ:
		validateMCQ(i, obj, &q, rep)
	case q.Type.IsText():
		validateText(i, obj, &q, rep)
	case q.Type == model.TypeMatching:
		validateMatching(i, obj, &q, rep)
	}

	return q, len(rep.Issues) == before
}

func validateMCQ(i int, obj map[string]any, q *model.Question, rep *Report) {
	choices, ok := stringList(obj["choices"])
	switch {
	case !ok:
		rep.add(i, q.ID, "choices", "required list of strings")
		return
	case len(choices) < 2:
		rep.add(i, q.ID, "choices", "need at least 2 choices, got %d", len(choices))
		return
	}
	for j, c := range choices {
		if strings.TrimSpace(c) == "" {
			rep.add(i, q.ID, "choices", "choice %d is empty", j)
			return
		}
	}
	q.Choices = choices

	raw, present := obj["correctIndex"]
	if !present {
		rep.add(i, q.ID, "correctIndex", "required")
		return
	}
	idx, ok := model.AsInt(raw)
	if !ok {
		rep.add(i, q.ID, "correctIndex", "must be an integer, got %v", raw)
		return
	}
	if idx < 0 || idx >= len(choices) {
		rep.add(i, q.ID, "correctIndex", "%d out of range [0,%d]", idx, len(choices)-1)
		return
	}
	q.CorrectIndex = idx
}

func validateText(i int, obj map[string]any, q *model.Question, rep *Report) {
	answer, ok := textValue(obj["correctAnswer"])
	if !ok || strings.TrimSpace(answer) == "" {
		rep.add(i, q.ID, "correctAnswer", "required")
	}
	q.CorrectAnswer = answer
	for _, key := range []string{"alternates", "acceptedAnswers"} {
		v, present := obj[key]
		if !present || v == nil {
			continue
		}
		alts, ok := stringList(v)
		if !ok {
			rep.add(i, q.ID, key, "must be a list of strings")
			continue
		}
		for _, a := range alts {
			if strings.TrimSpace(a) != "" {
				q.Alternates = append(q.Alternates, a)
			}
		}
	}
}

func validateMatching(i int, obj map[string]any, q *model.Question, rep *Report) {
	list, ok := obj["pairs"].([]any)
	if !ok || len(list) == 0 {
		rep.add(i, q.ID, "pairs", "required non-empty list")
		return
	}
	rights := make(map[string]int, len(list))
	pairs := make([]model.Pair, 0, len(list))
	for j, item := range list {
		p, ok := normalizeMap(item).(map[string]any)
		if !ok {
			rep.add(i, q.ID, "pairs", "pair %d is not an object", j)
			return
		}
		left, _ := p["left"].(string)
		right, _ := p["right"].(string)
		if strings.TrimSpace(left) == "" || strings.TrimSpace(right) == "" {
			rep.add(i, q.ID, "pairs", "pair %d needs non-empty left and right", j)
			return
		}
		if prev, dup := rights[right]; dup {
			rep.add(i, q.ID, "pairs", "pairs %d and %d share right value %q", prev, j, right)
			return
		}
		rights[right] = j
		pairs = append(pairs, model.Pair{Left: left, Right: right})
	}
	q.Pairs = pairs
}

func requiredString(i int, id string, obj map[string]any, key string, rep *Report) string {
	s, ok := obj[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		rep.add(i, id, key, "required")
		return ""
	}
	return s
}

func idField(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	if n, ok := model.AsInt(v); ok {
		return strconv.Itoa(n)
	}
	return ""
}

// textValue accepts a string or a number; generators often emit years and
// quantities as bare numbers.
func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	if n, ok := model.AsInt(v); ok {
		return strconv.Itoa(n), true
	}
	return "", false
}

// stringList reads a list of strings, converting numbers to text.
func stringList(v any) ([]string, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := textValue(item)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
