// Package session holds the quiz lifecycle as an explicit value. Every
// transition returns a new Session and never mutates its receiver.
package session

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/quizforge/internal/generate"
	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/scoring"
)

// State is a lifecycle phase.
type State string

const (
	Collecting State = "collecting"
	Generating State = "generating"
	Answering  State = "answering"
	Finished   State = "finished"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrBusy is returned by Submit while a generation is in flight.
	ErrBusy = errors.New("generation already in progress")
	// ErrUnknownQuestion is returned when answering an id not in the quiz.
	ErrUnknownQuestion = errors.New("unknown question")
)

// Ticket identifies one in-flight generation.
type Ticket string

// Options are the generation settings chosen while collecting.
type Options struct {
	QuestionCount int              `json:"questionCount"`
	QuizType      model.Strategy   `json:"quizType"`
	Difficulty    model.Difficulty `json:"difficulty"`
}

// DefaultOptions returns the settings a new session starts with.
func DefaultOptions() Options {
	return Options{QuestionCount: generate.DefaultQuestions, QuizType: model.StrategyMCQ}
}

// Session is the complete state of one quiz attempt.
type Session struct {
	State       State
	Files       []model.SourceFile
	Options     Options
	Quiz        *model.Quiz
	Answers     model.Answers
	Cursor      int
	StartedAt   time.Time
	FinishedAt  time.Time
	Ticket      Ticket
	Error       string
	Diagnostics *model.Diagnostics
	Score       *model.ScoreResult
}

// New returns an empty session in the collecting state.
func New() Session {
	return Session{State: Collecting, Options: DefaultOptions(), Answers: model.Answers{}}
}

func (s Session) invalid(action string) error {
	return fmt.Errorf("%s in state %s: %w", action, s.State, ErrInvalidTransition)
}

// clone copies the slices and maps of s so the result can be changed freely.
func (s Session) clone() Session {
	s.Files = slices.Clone(s.Files)
	s.Answers = s.Answers.Clone()
	return s
}

// AddFiles appends files to the selection. The whole batch is rejected if
// the result would break the file constraints.
func (s Session) AddFiles(files ...model.SourceFile) (Session, error) {
	if s.State != Collecting {
		return s, s.invalid("add files")
	}
	next := append(slices.Clone(s.Files), files...)
	if err := generate.CheckFiles(next); err != nil {
		return s, err
	}
	s = s.clone()
	s.Files = next
	s.Error = ""
	return s, nil
}

// ClearFiles empties the file selection.
func (s Session) ClearFiles() (Session, error) {
	if s.State != Collecting {
		return s, s.invalid("clear files")
	}
	s = s.clone()
	s.Files = nil
	return s, nil
}

// Configure replaces the generation options. The question count is clamped.
func (s Session) Configure(o Options) (Session, error) {
	if s.State != Collecting {
		return s, s.invalid("configure")
	}
	if o.QuizType == "" {
		o.QuizType = model.StrategyMCQ
	}
	if !o.QuizType.IsValid() {
		return s, &generate.ConstraintError{Code: generate.CodeInvalidStrategy, Name: string(o.QuizType)}
	}
	if !o.Difficulty.IsValid() {
		return s, &generate.ConstraintError{Code: generate.CodeInvalidLevel, Name: string(o.Difficulty)}
	}
	o.QuestionCount = generate.ClampCount(o.QuestionCount)
	s = s.clone()
	s.Options = o
	return s, nil
}

// Request builds the generation request for the current selection.
func (s Session) Request() generate.Request {
	return generate.Request{
		Files:         slices.Clone(s.Files),
		QuestionCount: s.Options.QuestionCount,
		QuizType:      s.Options.QuizType,
		Difficulty:    s.Options.Difficulty,
	}
}

// Submit moves a collecting session to generating. The returned ticket must
// be passed to Apply with the result.
func (s Session) Submit() (Session, Ticket, generate.Request, error) {
	switch s.State {
	case Collecting:
	case Generating:
		return s, "", generate.Request{}, ErrBusy
	default:
		return s, "", generate.Request{}, s.invalid("submit")
	}
	req, err := s.Request().Normalize()
	if err != nil {
		return s, "", generate.Request{}, err
	}
	s = s.clone()
	s.State = Generating
	s.Ticket = Ticket(uuid.NewString())
	s.Error = ""
	s.Diagnostics = nil
	return s, s.Ticket, req, nil
}

// Apply folds a generation result into the session. Results for another
// ticket, or arriving when the session is no longer generating, are ignored
// and reported with applied=false.
func (s Session) Apply(t Ticket, res model.GenerationResult, now time.Time) (next Session, applied bool) {
	if s.State != Generating || t == "" || t != s.Ticket {
		return s, false
	}
	s = s.clone()
	s.Ticket = ""
	d := res.Diagnostics()
	s.Diagnostics = &d
	if !res.OK || res.Quiz.Len() == 0 {
		s.State = Collecting
		s.Quiz = nil
		s.Error = res.Error
		if s.Error == "" {
			s.Error = "generation failed"
		}
		return s, true
	}
	qz := model.Quiz{Questions: slices.Clone(res.Quiz.Questions)}
	s.State = Answering
	s.Quiz = &qz
	s.Answers = model.Answers{}
	s.Cursor = 0
	s.StartedAt = now
	s.FinishedAt = time.Time{}
	s.Score = nil
	s.Error = ""
	return s, true
}

// Goto moves the cursor to i, clamped to the quiz bounds.
func (s Session) Goto(i int) (Session, error) {
	if s.State != Answering {
		return s, s.invalid("navigate")
	}
	s.Cursor = min(max(i, 0), s.Quiz.Len()-1)
	return s, nil
}

// Next advances the cursor by one.
func (s Session) Next() (Session, error) { return s.Goto(s.Cursor + 1) }

// Prev moves the cursor back by one.
func (s Session) Prev() (Session, error) { return s.Goto(s.Cursor - 1) }

// Current returns the question under the cursor.
func (s Session) Current() (model.Question, bool) {
	if s.Quiz == nil || s.Cursor < 0 || s.Cursor >= len(s.Quiz.Questions) {
		return model.Question{}, false
	}
	return s.Quiz.Questions[s.Cursor], true
}

// Answer records ans for question id, replacing any earlier answer.
func (s Session) Answer(id string, ans model.Answer) (Session, error) {
	if s.State != Answering {
		return s, s.invalid("answer")
	}
	if _, ok := s.Quiz.Find(id); !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	s.Answers = s.Answers.With(id, ans)
	return s, nil
}

// Finish grades the quiz with sc. It is allowed from any cursor position
// and with unanswered questions.
func (s Session) Finish(sc scoring.Scorer, now time.Time) (Session, error) {
	if s.State != Answering {
		return s, s.invalid("finish")
	}
	res := sc.Score(*s.Quiz, s.Answers)
	s = s.clone()
	s.State = Finished
	s.FinishedAt = now
	s.Score = &res
	return s, nil
}

// Elapsed returns the time spent answering.
func (s Session) Elapsed() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Restart discards the finished attempt and its files. Options are kept.
func (s Session) Restart() (Session, error) {
	if s.State != Finished {
		return s, s.invalid("restart")
	}
	next := New()
	next.Options = s.Options
	return next, nil
}
