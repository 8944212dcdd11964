// Package scoring grades a quiz against collected answers. Grading is a pure
// function of its inputs.
package scoring

import (
	"strings"

	"github.com/pavelanni/quizforge/internal/model"
)

// Scorer grades quizzes under a fixed policy.
type Scorer struct {
	partialMatching bool
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithPartialMatching awards a fraction of a matching question's point per
// correct pair. The per-question correct flag stays all-or-nothing.
func WithPartialMatching(b bool) Option { return func(s *Scorer) { s.partialMatching = b } }

// New creates a Scorer. The default policy is binary for every kind.
func New(opts ...Option) Scorer {
	var s Scorer
	for _, o := range opts {
		o(&s)
	}
	return s
}

// Score grades q with the default policy.
func Score(q model.Quiz, answers model.Answers) model.ScoreResult {
	return New().Score(q, answers)
}

// Score grades every question of q. Each question is worth one unit.
// Answers for unknown ids or with the wrong shape count as unanswered.
func (s Scorer) Score(q model.Quiz, answers model.Answers) model.ScoreResult {
	res := model.ScoreResult{
		Possible:    float64(len(q.Questions)),
		PerQuestion: make([]model.QuestionResult, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		ans, ok := answers[question.ID]
		credit, correct := 0.0, false
		if ok {
			credit, correct = s.grade(question, ans)
		}
		res.Earned += credit
		res.PerQuestion = append(res.PerQuestion, model.QuestionResult{ID: question.ID, Correct: correct})
	}
	if res.Possible > 0 {
		res.Percent = min(100, max(0, 100*res.Earned/res.Possible))
	}
	return res
}

// grade returns the credit in [0,1] and the binary outcome for one question.
func (s Scorer) grade(q model.Question, a model.Answer) (float64, bool) {
	switch {
	case q.Type == model.TypeMCQ:
		if a.Kind == model.AnswerChoice && a.Choice == q.CorrectIndex {
			return 1, true
		}
	case q.Type.IsText():
		if a.Kind == model.AnswerText && MatchText(a.Text, q.CorrectAnswer, q.Alternates) {
			return 1, true
		}
	case q.Type == model.TypeMatching:
		return s.gradeMatching(q, a)
	}
	return 0, false
}

func (s Scorer) gradeMatching(q model.Question, a model.Answer) (float64, bool) {
	if a.Kind != model.AnswerMatches || len(q.Pairs) == 0 {
		return 0, false
	}
	matched := 0
	for i, p := range q.Pairs {
		if got, ok := a.Matches[i]; ok && got == p.Right {
			matched++
		}
	}
	if matched == len(q.Pairs) {
		return 1, true
	}
	if s.partialMatching {
		return float64(matched) / float64(len(q.Pairs)), false
	}
	return 0, false
}

// MatchText reports whether answer equals want or one of alternates after
// trimming, ignoring case. Blank answers never match.
func MatchText(answer, want string, alternates []string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	if strings.EqualFold(answer, strings.TrimSpace(want)) {
		return true
	}
	for _, alt := range alternates {
		if strings.EqualFold(answer, strings.TrimSpace(alt)) {
			return true
		}
	}
	return false
}
