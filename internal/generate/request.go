package generate

import (
	"errors"
	"fmt"

	"github.com/pavelanni/quizforge/internal/model"
)

const (
	// MaxFiles is the largest number of source documents per request.
	MaxFiles = 10
	// MaxFileSize is the largest accepted source document, in bytes.
	MaxFileSize int64 = 20 << 20

	MinQuestions     = 1
	MaxQuestions     = 100
	DefaultQuestions = 10
)

// ConstraintCode identifies which input constraint was violated.
type ConstraintCode string

const (
	CodeTooManyFiles    ConstraintCode = "too_many_files"
	CodeFileTooLarge    ConstraintCode = "file_too_large"
	CodeNoFiles         ConstraintCode = "no_files"
	CodeInvalidStrategy ConstraintCode = "invalid_strategy"
	CodeInvalidLevel    ConstraintCode = "invalid_difficulty"
)

// ConstraintError is an input violation detected before any request is sent.
type ConstraintError struct {
	Code  ConstraintCode
	Name  string // offending file or value
	Limit int64
}

func (e *ConstraintError) Error() string {
	switch e.Code {
	case CodeTooManyFiles:
		return fmt.Sprintf("maximum %d files allowed", e.Limit)
	case CodeFileTooLarge:
		return fmt.Sprintf("%s exceeds %d MB", e.Name, e.Limit>>20)
	case CodeNoFiles:
		return "no source files selected"
	case CodeInvalidStrategy:
		return fmt.Sprintf("unknown quiz type %q", e.Name)
	case CodeInvalidLevel:
		return fmt.Sprintf("unknown difficulty %q", e.Name)
	}
	return string(e.Code)
}

// IsConstraint reports whether err is a ConstraintError and returns it.
func IsConstraint(err error) (*ConstraintError, bool) {
	var ce *ConstraintError
	ok := errors.As(err, &ce)
	return ce, ok
}

// CheckFiles validates a file selection against the count and size limits.
func CheckFiles(files []model.SourceFile) error {
	if len(files) > MaxFiles {
		return &ConstraintError{Code: CodeTooManyFiles, Limit: MaxFiles}
	}
	for _, f := range files {
		if f.Size > MaxFileSize {
			return &ConstraintError{Code: CodeFileTooLarge, Name: f.Name, Limit: MaxFileSize}
		}
	}
	return nil
}

// ClampCount forces a requested question count into [MinQuestions, MaxQuestions].
func ClampCount(n int) int {
	return min(MaxQuestions, max(MinQuestions, n))
}

// Request is what the generator is asked to produce.
type Request struct {
	Files         []model.SourceFile
	QuestionCount int
	QuizType      model.Strategy
	Difficulty    model.Difficulty
}

// Normalize validates r and clamps its question count.
func (r Request) Normalize() (Request, error) {
	if len(r.Files) == 0 {
		return r, &ConstraintError{Code: CodeNoFiles}
	}
	if err := CheckFiles(r.Files); err != nil {
		return r, err
	}
	if r.QuizType == "" {
		r.QuizType = model.StrategyMCQ
	}
	if !r.QuizType.IsValid() {
		return r, &ConstraintError{Code: CodeInvalidStrategy, Name: string(r.QuizType)}
	}
	if !r.Difficulty.IsValid() {
		return r, &ConstraintError{Code: CodeInvalidLevel, Name: string(r.Difficulty)}
	}
	r.QuestionCount = ClampCount(r.QuestionCount)
	return r, nil
}

// TotalSize returns the summed declared size of the request files.
func (r Request) TotalSize() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Size
	}
	return n
}
