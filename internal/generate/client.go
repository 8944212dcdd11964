package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/quiz"
)

// Output is what a backend received from the generator.
type Output struct {
	Payload []byte
	Debug   any
}

// Backend sends a request to an external generator. On failure it should
// still return whatever payload it received.
type Backend interface {
	Generate(ctx context.Context, req Request) (Output, error)
}

// Client turns backend replies into GenerationResults.
type Client struct {
	backend Backend
	strict  bool
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithStrict rejects a quiz if any question fails validation. By default the
// valid questions are kept and the rest reported in Details.
func WithStrict(strict bool) Option { return func(c *Client) { c.strict = strict } }

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// New creates a Client over the given backend.
func New(b Backend, opts ...Option) *Client {
	c := &Client{backend: b}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate validates req, calls the backend and validates its output. It
// never returns an error: every failure is reported through the result.
func (c *Client) Generate(ctx context.Context, req Request) model.GenerationResult {
	start := time.Now()
	req, err := req.Normalize()
	if err != nil {
		slog.Warn("generation request rejected", "error", err)
		return model.GenerationResult{
			Error:   err.Error(),
			Details: "request rejected before contacting the generator",
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.backend.Generate(ctx, req)
	res := c.Interpret(req.QuestionCount, out, err)

	attrs := []any{
		"ok", res.OK,
		"quiz_type", req.QuizType,
		"difficulty", req.Difficulty,
		"requested", req.QuestionCount,
		"received", res.Quiz.Len(),
		"files", len(req.Files),
		"bytes", req.TotalSize(),
		"duration", time.Since(start),
	}
	if res.OK {
		slog.Info("quiz generated", attrs...)
	} else {
		slog.Warn("quiz generation failed", append(attrs, "error", res.Error)...)
	}
	return res
}

// Interpret folds a backend reply into a result. requested is the number of
// questions that were asked for.
func (c *Client) Interpret(requested int, out Output, callErr error) model.GenerationResult {
	res := model.GenerationResult{Raw: string(out.Payload), Debug: out.Debug}
	if callErr != nil {
		res.Error = fmt.Sprintf("generator request failed: %v", callErr)
		return res
	}

	payload, err := quiz.Parse(res.Raw)
	if err != nil {
		res.Error = "generator did not return structured quiz data"
		res.Details = err.Error()
		return res
	}

	var notes []string
	if env, ok := asEnvelope(payload); ok {
		if s, ok := env["raw"].(string); ok && s != "" {
			res.Raw = s
		}
		if d, ok := env["debug"]; ok && d != nil {
			res.Debug = d
		}
		if s, ok := env["details"].(string); ok && s != "" {
			notes = append(notes, s)
		}
		if ok, _ := env["ok"].(bool); !ok {
			res.Error, _ = env["error"].(string)
			if res.Error == "" {
				res.Error = "generation failed"
			}
			res.Details = strings.Join(notes, "\n")
			return res
		}
		// Some services put the questions beside ok instead of under quiz.
		if q, ok := env["quiz"]; ok {
			payload = q
		}
	}

	qz, rep := quiz.Validate(payload)
	if !rep.OK() {
		notes = append(notes, rep.String())
	}
	switch {
	case rep.Valid == 0:
		res.Error = "generated quiz failed validation"
	case !rep.OK() && c.strict:
		res.Error = fmt.Sprintf("generated quiz failed validation: %d issues", len(rep.Issues))
	default:
		res.OK = true
		res.Quiz = &qz
		if requested > 0 && len(qz.Questions) != requested {
			notes = append(notes, fmt.Sprintf("requested %d questions, received %d", requested, len(qz.Questions)))
		}
	}
	res.Details = strings.Join(notes, "\n")
	return res
}

// asEnvelope recognizes a {ok, quiz, error, ...} response from a generator service.
func asEnvelope(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	_, hasOK := m["ok"].(bool)
	return m, hasOK
}
