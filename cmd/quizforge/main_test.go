package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const testQuiz = `questions:
  - id: q1
    type: mcq
    prompt: "2+2?"
    choices: ["3", "4"]
    correctIndex: 1
  - id: q2
    type: fill_blank
    prompt: "Capital of France: ___"
    correctAnswer: Paris
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.Execute()
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	quizPath := writeFile(t, dir, "quiz.yaml", testQuiz)
	answersPath := writeFile(t, dir, "answers.json", `{"q1": 1, "q2": "paris"}`)
	out := filepath.Join(dir, "score.json")

	if err := run(t, "score", "--quiz", quizPath, "--answers", answersPath, "-o", out); err != nil {
		t.Fatalf("score: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Earned  float64 `json:"earned"`
		Percent float64 `json:"percent"`
		Band    string  `json:"band"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.Earned != 2 || got.Percent != 100 || got.Band != "high" {
		t.Errorf("report = %+v", got)
	}
}

func TestScoreCommandRejectsEmptyQuiz(t *testing.T) {
	dir := t.TempDir()
	quizPath := writeFile(t, dir, "quiz.json", `{"questions": [{"id": "q1", "type": "essay"}]}`)
	answersPath := writeFile(t, dir, "answers.json", `{}`)

	if err := run(t, "score", "--quiz", quizPath, "--answers", answersPath, "-o", filepath.Join(dir, "out.json")); err == nil {
		t.Error("expected error for a quiz without valid questions")
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "Here you go:\n"+`{"questions": [{"id": "a", "type": "identification", "prompt": "Who?", "correctAnswer": "Me"}]}`)
	bad := writeFile(t, dir, "bad.txt", "I could not produce a quiz.")
	out := filepath.Join(dir, "result.json")

	if err := run(t, "validate", "-i", good, "-o", out); err != nil {
		t.Fatalf("validate good: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(data, &res); err != nil || !res.OK {
		t.Errorf("result = %s (err %v)", data, err)
	}

	if err := run(t, "validate", "-i", bad, "-o", out); err == nil {
		t.Error("expected error for output without JSON")
	}
}

func TestPreferencesCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "q.db")
	out := filepath.Join(dir, "prefs.json")

	read := func() map[string]any {
		t.Helper()
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		var p map[string]any
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return p
	}

	if err := run(t, "preferences", "--db", db, "-o", out); err != nil {
		t.Fatalf("show: %v", err)
	}
	if p := read(); p["theme"] != "nebula" || p["animations"] != true {
		t.Errorf("defaults = %v", p)
	}

	if err := run(t, "preferences", "--db", db, "--theme", "midnight", "--animations=false", "-o", out); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := run(t, "preferences", "--db", db, "-o", out); err != nil {
		t.Fatalf("show: %v", err)
	}
	if p := read(); p["theme"] != "midnight" || p["animations"] != false || p["font"] != "inter" {
		t.Errorf("saved = %v", p)
	}

	if err := run(t, "preferences", "--db", db, "--theme", "neon", "-o", out); err == nil {
		t.Error("expected error for an unknown theme")
	}
}
