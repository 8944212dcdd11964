package quiz

import (
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/quizforge/internal/model"
)

const sampleQuiz = `{
  "questions": [
    {"id": "q1", "type": "mcq", "prompt": "2+2?", "choices": ["3", "4", "5"], "correctIndex": 1, "explanation": "basic", "difficulty": "easy"},
    {"id": "q2", "type": "fill_blank", "prompt": "Capital of France: ___", "correctAnswer": "Paris", "alternates": ["Paname"]},
    {"id": "q3", "type": "identification", "prompt": "Who wrote Hamlet?", "correctAnswer": "Shakespeare", "acceptedAnswers": ["William Shakespeare"]},
    {"id": "q4", "type": "matching", "prompt": "Match", "pairs": [{"left": "A", "right": "1"}, {"left": "B", "right": "2"}]}
  ]
}`

func mustParse(t *testing.T, text string) any {
	t.Helper()
	v, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return v
}

func TestValidateAllKinds(t *testing.T) {
	q, rep := Validate(mustParse(t, sampleQuiz))
	if !rep.OK() {
		t.Fatalf("unexpected issues: %s", rep)
	}
	if rep.Total != 4 || rep.Valid != 4 {
		t.Errorf("report = %+v, want 4/4", rep)
	}
	if len(q.Questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(q.Questions))
	}

	mcq := q.Questions[0]
	if mcq.Type != model.TypeMCQ || mcq.CorrectIndex != 1 || len(mcq.Choices) != 3 {
		t.Errorf("mcq = %+v", mcq)
	}
	if q.Questions[1].Alternates[0] != "Paname" {
		t.Errorf("alternates = %v", q.Questions[1].Alternates)
	}
	if q.Questions[2].Alternates[0] != "William Shakespeare" {
		t.Errorf("acceptedAnswers not merged: %v", q.Questions[2].Alternates)
	}
	if got := q.Questions[3].Rights(); strings.Join(got, ",") != "1,2" {
		t.Errorf("rights = %v", got)
	}
}

func TestValidateRejectsInvalidQuestions(t *testing.T) {
	tests := []struct {
		name  string
		item  string
		field string
	}{
		{"unknown type", `{"id":"x","type":"essay","prompt":"p"}`, "type"},
		{"mixed is not a type", `{"id":"x","type":"mixed","prompt":"p"}`, "type"},
		{"missing id", `{"type":"fill_blank","prompt":"p","correctAnswer":"a"}`, "id"},
		{"empty prompt", `{"id":"x","type":"fill_blank","prompt":"  ","correctAnswer":"a"}`, "prompt"},
		{"one choice", `{"id":"x","type":"mcq","prompt":"p","choices":["a"],"correctIndex":0}`, "choices"},
		{"empty choice", `{"id":"x","type":"mcq","prompt":"p","choices":["a",""],"correctIndex":0}`, "choices"},
		{"index out of range", `{"id":"x","type":"mcq","prompt":"p","choices":["a","b"],"correctIndex":2}`, "correctIndex"},
		{"negative index", `{"id":"x","type":"mcq","prompt":"p","choices":["a","b"],"correctIndex":-1}`, "correctIndex"},
		{"fractional index", `{"id":"x","type":"mcq","prompt":"p","choices":["a","b"],"correctIndex":0.5}`, "correctIndex"},
		{"string index", `{"id":"x","type":"mcq","prompt":"p","choices":["a","b"],"correctIndex":"1"}`, "correctIndex"},
		{"missing index", `{"id":"x","type":"mcq","prompt":"p","choices":["a","b"]}`, "correctIndex"},
		{"missing answer", `{"id":"x","type":"identification","prompt":"p"}`, "correctAnswer"},
		{"boolean answer", `{"id":"x","type":"identification","prompt":"p","correctAnswer":true}`, "correctAnswer"},
		{"bad alternates", `{"id":"x","type":"fill_blank","prompt":"p","correctAnswer":"a","alternates":"b"}`, "alternates"},
		{"empty pairs", `{"id":"x","type":"matching","prompt":"p","pairs":[]}`, "pairs"},
		{"duplicate rights", `{"id":"x","type":"matching","prompt":"p","pairs":[{"left":"A","right":"1"},{"left":"B","right":"1"}]}`, "pairs"},
		{"half pair", `{"id":"x","type":"matching","prompt":"p","pairs":[{"left":"A"}]}`, "pairs"},
		{"not an object", `"hello"`, "question"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := mustParse(t, `{"questions":[`+tt.item+`]}`)
			q, rep := Validate(payload)
			if len(q.Questions) != 0 {
				t.Fatalf("invalid question surfaced: %+v", q.Questions)
			}
			if len(rep.Issues) == 0 {
				t.Fatal("expected an issue")
			}
			if rep.Issues[0].Field != tt.field {
				t.Errorf("issue field = %q, want %q (%s)", rep.Issues[0].Field, tt.field, rep)
			}
			if rep.Issues[0].Index != 0 {
				t.Errorf("issue index = %d, want 0", rep.Issues[0].Index)
			}
		})
	}
}

func TestValidatePartialQuiz(t *testing.T) {
	payload := mustParse(t, `[
		{"id":"a","type":"fill_blank","prompt":"p","correctAnswer":"x"},
		{"id":"b","type":"mcq","prompt":"p","choices":["1","2"],"correctIndex":5},
		{"id":"a","type":"fill_blank","prompt":"p2","correctAnswer":"y"}
	]`)
	q, rep := Validate(payload)
	if len(q.Questions) != 1 || q.Questions[0].ID != "a" {
		t.Fatalf("questions = %+v", q.Questions)
	}
	if rep.Total != 3 || rep.Valid != 1 || len(rep.Issues) != 2 {
		t.Errorf("report = %+v", rep)
	}
	s := rep.String()
	for _, want := range []string{"1 of 3 questions valid", "question 2 (b): correctIndex", "question 3 (a): id: duplicate id"} {
		if !strings.Contains(s, want) {
			t.Errorf("report %q missing %q", s, want)
		}
	}
}

func TestValidateNumericTextAnswers(t *testing.T) {
	payload := mustParse(t, `[
		{"id":"a","type":"identification","prompt":"End of WWII?","correctAnswer":1945,"alternates":[1945.0, "nineteen forty-five"]},
		{"id":"b","type":"fill_blank","prompt":"Pi to two places: ___","correctAnswer":3.14},
		{"id":"c","type":"mcq","prompt":"2+2?","choices":[3,4],"correctIndex":1}
	]`)
	q, rep := Validate(payload)
	if !rep.OK() {
		t.Fatalf("unexpected issues: %s", rep)
	}
	if got := q.Questions[0]; got.CorrectAnswer != "1945" || strings.Join(got.Alternates, "|") != "1945.0|nineteen forty-five" {
		t.Errorf("question a = %+v", got)
	}
	if got := q.Questions[1].CorrectAnswer; got != "3.14" {
		t.Errorf("question b answer = %q", got)
	}
	if got := q.Questions[2].Choices; strings.Join(got, ",") != "3,4" {
		t.Errorf("question c choices = %v", got)
	}
}

func TestValidatePayloadShapes(t *testing.T) {
	item := `{"id":"a","type":"fill_blank","prompt":"p","correctAnswer":"x"}`
	tests := []struct {
		name  string
		text  string
		valid int
	}{
		{"questions object", `{"questions":[` + item + `]}`, 1},
		{"nested quiz", `{"quiz":{"questions":[` + item + `]}}`, 1},
		{"bare array", `[` + item + `]`, 1},
		{"no questions key", `{"items":[]}`, 0},
		{"questions not array", `{"questions":"none"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, rep := Validate(mustParse(t, tt.text))
			if len(q.Questions) != tt.valid {
				t.Errorf("valid = %d, want %d (%s)", len(q.Questions), tt.valid, rep)
			}
		})
	}
}

func TestValidateNumericIDAndYAMLMaps(t *testing.T) {
	payload := map[string]any{
		"questions": []any{
			map[any]any{"id": 7, "type": "mcq", "prompt": "p", "choices": []any{"a", "b"}, "correctIndex": 1},
		},
	}
	q, rep := Validate(payload)
	if !rep.OK() {
		t.Fatalf("issues: %s", rep)
	}
	if q.Questions[0].ID != "7" || q.Questions[0].CorrectIndex != 1 {
		t.Errorf("question = %+v", q.Questions[0])
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"plain", `{"questions":[]}`, nil},
		{"fenced", "```json\n{\"questions\":[]}\n```", nil},
		{"fenced with prose", "Here is your quiz:\n```\n[1,2]\n```\nEnjoy!", nil},
		{"embedded", `Sure! {"questions": []} Let me know.`, nil},
		{"prose", "I'm sorry, I cannot create a quiz from these documents.", ErrNoJSON},
		{"truncated", `{"questions": [{"id": "q1"`, ErrNoJSON},
		{"empty", "   \n", ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
