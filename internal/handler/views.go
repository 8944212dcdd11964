package handler

import (
	"context"
	"slices"

	"github.com/pavelanni/quizforge/internal/generate"
	appI18n "github.com/pavelanni/quizforge/internal/i18n"
	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/scoring"
	"github.com/pavelanni/quizforge/internal/session"
)

type limitsView struct {
	MaxFiles     int   `json:"maxFiles"`
	MaxFileSize  int64 `json:"maxFileSize"`
	MinQuestions int   `json:"minQuestions"`
	MaxQuestions int   `json:"maxQuestions"`
}

var limits = limitsView{
	MaxFiles:     generate.MaxFiles,
	MaxFileSize:  generate.MaxFileSize,
	MinQuestions: generate.MinQuestions,
	MaxQuestions: generate.MaxQuestions,
}

// questionView is a question without its answer key.
type questionView struct {
	ID       string             `json:"id"`
	Type     model.QuestionType `json:"type"`
	Prompt   string             `json:"prompt"`
	Choices  []string           `json:"choices,omitempty"`
	Lefts    []string           `json:"lefts,omitempty"`
	Rights   []string           `json:"rights,omitempty"`
	Answered bool               `json:"answered"`
	Answer   *model.Answer      `json:"answer,omitempty"`
}

type reviewItem struct {
	model.Question
	Answer  *model.Answer `json:"answer,omitempty"`
	Correct bool          `json:"correct"`
}

type resultView struct {
	model.ScoreResult
	Band     scoring.Band `json:"band"`
	Feedback string       `json:"feedback"`
	Elapsed  string       `json:"elapsed"`
	Review   []reviewItem `json:"review"`
}

type sessionView struct {
	ID          string             `json:"id"`
	State       session.State      `json:"state"`
	StateLabel  string             `json:"stateLabel"`
	Files       []model.SourceFile `json:"files"`
	Options     session.Options    `json:"options"`
	Limits      limitsView         `json:"limits"`
	Error       string             `json:"error,omitempty"`
	Diagnostics *model.Diagnostics `json:"diagnostics,omitempty"`

	Cursor   int           `json:"cursor"`
	Total    int           `json:"total"`
	Progress string        `json:"progress,omitempty"`
	Answered string        `json:"answered,omitempty"`
	Question *questionView `json:"question,omitempty"`

	Result *resultView `json:"result,omitempty"`
}

var stateLabels = map[session.State]string{
	session.Collecting: "StateCollecting",
	session.Generating: "StateGenerating",
	session.Answering:  "StateAnswering",
	session.Finished:   "StateFinished",
}

var bandMessages = map[scoring.Band]string{
	scoring.BandHigh:   "BandHigh",
	scoring.BandMedium: "BandMedium",
	scoring.BandLow:    "BandLow",
}

// newSessionView renders s for the client. The answer key is only included
// once the session is finished. Diagnostics carry the raw generator output,
// so they are withheld while answering.
func newSessionView(ctx context.Context, id string, s session.Session) sessionView {
	v := sessionView{
		ID:          id,
		State:       s.State,
		StateLabel:  appI18n.T(ctx, stateLabels[s.State]),
		Files:       s.Files,
		Options:     s.Options,
		Limits:      limits,
		Error:       s.Error,
		Cursor:      s.Cursor,
		Total:       s.Quiz.Len(),
	}
	if v.Files == nil {
		v.Files = []model.SourceFile{}
	}
	if s.State != session.Answering {
		v.Diagnostics = s.Diagnostics
	}

	switch s.State {
	case session.Answering:
		v.Progress = appI18n.Td(ctx, "QuestionProgress", map[string]any{"Current": s.Cursor + 1, "Total": v.Total})
		v.Answered = appI18n.Tp(ctx, "QuestionsAnswered", answeredCount(s))
		if q, ok := s.Current(); ok {
			qv := newQuestionView(q, s.Answers)
			v.Question = &qv
		}
	case session.Finished:
		v.Answered = appI18n.Tp(ctx, "QuestionsAnswered", answeredCount(s))
		v.Result = newResultView(ctx, s)
	}
	return v
}

func answeredCount(s session.Session) int {
	if s.Quiz == nil {
		return 0
	}
	n := 0
	for _, q := range s.Quiz.Questions {
		if s.Answers.Answered(q.ID) {
			n++
		}
	}
	return n
}

func newQuestionView(q model.Question, answers model.Answers) questionView {
	v := questionView{
		ID:      q.ID,
		Type:    q.Type,
		Prompt:  q.Prompt,
		Choices: q.Choices,
	}
	if q.Type == model.TypeMatching {
		for _, p := range q.Pairs {
			v.Lefts = append(v.Lefts, p.Left)
		}
		// Sorted so the pair order does not reveal the key.
		v.Rights = slices.Sorted(slices.Values(q.Rights()))
	}
	if ans, ok := answers[q.ID]; ok {
		v.Answer = &ans
		v.Answered = !ans.IsBlank()
	}
	return v
}

func newResultView(ctx context.Context, s session.Session) *resultView {
	if s.Score == nil {
		return nil
	}
	band := scoring.BandFor(s.Score.Percent)
	rv := &resultView{
		ScoreResult: *s.Score,
		Band:        band,
		Feedback:    appI18n.T(ctx, bandMessages[band]),
		Elapsed:     scoring.FormatDuration(s.Elapsed()),
	}
	for _, q := range s.Quiz.Questions {
		item := reviewItem{Question: q}
		if ans, ok := s.Answers[q.ID]; ok {
			item.Answer = &ans
		}
		if res, ok := s.Score.Result(q.ID); ok {
			item.Correct = res.Correct
		}
		rv.Review = append(rv.Review, item)
	}
	return rv
}
