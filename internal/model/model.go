package model

import "slices"

// QuestionType is the concrete kind of a stored question.
type QuestionType string

const (
	TypeMCQ            QuestionType = "mcq"
	TypeFillBlank      QuestionType = "fill_blank"
	TypeIdentification QuestionType = "identification"
	TypeMatching       QuestionType = "matching"
)

// QuestionTypes lists every concrete question kind.
var QuestionTypes = []QuestionType{TypeMCQ, TypeFillBlank, TypeIdentification, TypeMatching}

// IsValid reports whether t is a concrete question kind.
func (t QuestionType) IsValid() bool {
	return slices.Contains(QuestionTypes, t)
}

// IsText reports whether answers to t are free text.
func (t QuestionType) IsText() bool {
	return t == TypeFillBlank || t == TypeIdentification
}

// Strategy is the question mix requested from the generator.
type Strategy string

const (
	StrategyMCQ            Strategy = "mcq"
	StrategyFillBlank      Strategy = "fill_blank"
	StrategyIdentification Strategy = "identification"
	StrategyMatching       Strategy = "matching"
	// StrategyMixed lets the generator pick a concrete kind per question.
	StrategyMixed Strategy = "mixed"
)

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyMCQ, StrategyFillBlank, StrategyIdentification, StrategyMatching, StrategyMixed:
		return true
	}
	return false
}

// Difficulty is the requested difficulty tier. The empty value means balanced.
type Difficulty string

const (
	DifficultyBalanced Difficulty = ""
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
)

// IsValid reports whether d is a known tier.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBalanced, DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Pair is one left/right entry of a matching question.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question is a validated quiz question. Which of the kind-specific fields
// are meaningful depends on Type.
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Prompt      string       `json:"prompt"`
	Explanation string       `json:"explanation,omitempty"`

	// mcq
	Choices      []string `json:"choices,omitempty"`
	CorrectIndex int      `json:"correctIndex"`

	// fill_blank, identification
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Alternates    []string `json:"alternates,omitempty"`

	// matching
	Pairs []Pair `json:"pairs,omitempty"`
}

// Rights returns the right-hand values of a matching question in order.
func (q Question) Rights() []string {
	rights := make([]string, len(q.Pairs))
	for i, p := range q.Pairs {
		rights[i] = p.Right
	}
	return rights
}

// Quiz is an ordered set of validated questions.
type Quiz struct {
	Questions []Question `json:"questions"`
}

// Len returns the number of questions.
func (q *Quiz) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Questions)
}

// Find returns the question with the given id.
func (q *Quiz) Find(id string) (Question, bool) {
	if q == nil {
		return Question{}, false
	}
	for _, qq := range q.Questions {
		if qq.ID == id {
			return qq, true
		}
	}
	return Question{}, false
}

// SourceFile is an uploaded document handed to the generator.
type SourceFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Data []byte `json:"-"`
}

// GenerationResult is what a generation attempt produced. Raw, Debug and
// Details are kept on failure so malformed output can be inspected.
type GenerationResult struct {
	OK      bool   `json:"ok"`
	Quiz    *Quiz  `json:"quiz,omitempty"`
	Error   string `json:"error,omitempty"`
	Raw     string `json:"raw,omitempty"`
	Debug   any    `json:"debug,omitempty"`
	Details string `json:"details,omitempty"`
}

// Diagnostics returns the diagnostic fields of r.
func (r GenerationResult) Diagnostics() Diagnostics {
	return Diagnostics{Raw: r.Raw, Debug: r.Debug, Details: r.Details}
}

// Diagnostics holds generator output kept for troubleshooting.
type Diagnostics struct {
	Raw     string `json:"raw,omitempty"`
	Debug   any    `json:"debug,omitempty"`
	Details string `json:"details,omitempty"`
}

// QuestionResult is the graded outcome of one question.
type QuestionResult struct {
	ID      string `json:"id"`
	Correct bool   `json:"correct"`
}

// ScoreResult is the graded outcome of a quiz.
type ScoreResult struct {
	Earned      float64          `json:"earned"`
	Possible    float64          `json:"possible"`
	Percent     float64          `json:"percent"`
	PerQuestion []QuestionResult `json:"perQuestion"`
}

// Result returns the per-question outcome for id.
func (s ScoreResult) Result(id string) (QuestionResult, bool) {
	for _, r := range s.PerQuestion {
		if r.ID == id {
			return r, true
		}
	}
	return QuestionResult{}, false
}
