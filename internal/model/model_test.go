package model

import "testing"

func TestQuestionTypeKinds(t *testing.T) {
	tests := []struct {
		typ   QuestionType
		valid bool
		text  bool
	}{
		{TypeMCQ, true, false},
		{TypeFillBlank, true, true},
		{TypeIdentification, true, true},
		{TypeMatching, true, false},
		{"mixed", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := tt.typ.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
			if got := tt.typ.IsText(); got != tt.text {
				t.Errorf("IsText() = %v, want %v", got, tt.text)
			}
		})
	}
}
