package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pavelanni/quizforge/internal/generate"
	"github.com/pavelanni/quizforge/internal/model"
)

const quizJSON = `{"questions":[{"id":"q1","type":"mcq","prompt":"2+2?","choices":["3","4"],"correctIndex":1}]}`

type chatRequest struct {
	Model          string `json:"model"`
	Messages       []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

// fakeOpenAI serves a chat completion returning content with finishReason.
func fakeOpenAI(t *testing.T, content, finishReason string, got *chatRequest) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": finishReason,
			}},
			"usage": map[string]int{"prompt_tokens": 100, "completion_tokens": 20, "total_tokens": 120},
		})
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"test-model","object":"model"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func request() generate.Request {
	return generate.Request{
		Files:         []model.SourceFile{{Name: "notes.txt", Size: 11, Data: []byte("Go has goroutines.")}},
		QuestionCount: 1,
		QuizType:      model.StrategyMCQ,
		Difficulty:    model.DifficultyEasy,
	}
}

func TestGenerate(t *testing.T) {
	var got chatRequest
	srv := fakeOpenAI(t, quizJSON, "stop", &got)
	c := New(srv.URL+"/v1", "test-key", "test-model", DefaultTemperature)

	out, err := c.Generate(context.Background(), request())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(out.Payload) != quizJSON {
		t.Errorf("payload = %s", out.Payload)
	}
	dbg, ok := out.Debug.(map[string]any)
	if !ok || dbg["model"] != "test-model" || dbg["finish_reason"] != "stop" {
		t.Errorf("debug = %v", out.Debug)
	}

	if got.Model != "test-model" || got.ResponseFormat.Type != "json_object" {
		t.Errorf("request model=%q format=%q", got.Model, got.ResponseFormat.Type)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d", len(got.Messages))
	}
	if !strings.Contains(got.Messages[1].Content, "Go has goroutines.") {
		t.Error("user message should contain the document text")
	}
	if !strings.Contains(got.Messages[0].Content, "exactly 1 questions") {
		t.Error("system message should contain the question count")
	}
}

func TestGenerateTruncated(t *testing.T) {
	srv := fakeOpenAI(t, `{"questions":[`, "length", nil)
	c := New(srv.URL+"/v1", "k", "test-model", 0)
	out, err := c.Generate(context.Background(), request())
	if err == nil || !strings.Contains(err.Error(), "truncated") {
		t.Fatalf("err = %v", err)
	}
	if string(out.Payload) != `{"questions":[` {
		t.Errorf("partial payload not returned: %q", out.Payload)
	}
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/v1", "wrong", "test-model", 0)
	res := generate.New(c).Generate(context.Background(), request())
	if res.OK {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "LLM API call") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestGenerateThroughClient(t *testing.T) {
	srv := fakeOpenAI(t, "```json\n"+quizJSON+"\n```", "stop", nil)
	res := generate.New(New(srv.URL+"/v1", "k", "test-model", 0)).Generate(context.Background(), request())
	if !res.OK || res.Quiz.Len() != 1 {
		t.Fatalf("got %+v", res)
	}
	if res.Quiz.Questions[0].CorrectIndex != 1 {
		t.Errorf("correctIndex = %d", res.Quiz.Questions[0].CorrectIndex)
	}
}

func TestPing(t *testing.T) {
	srv := fakeOpenAI(t, "", "stop", nil)
	if err := New(srv.URL+"/v1", "k", "m", 0).Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
