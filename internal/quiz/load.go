package quiz

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/quizforge/internal/model"
)

// IsYAML reports whether name has a YAML extension.
func IsYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Decode reads a quiz or answer document. YAML files are recognized by
// name; everything else goes through Parse.
func Decode(data []byte, name string) (any, error) {
	if IsYAML(name) {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse YAML %s: %w", name, err)
		}
		if v == nil {
			return nil, ErrEmpty
		}
		return v, nil
	}
	return Parse(string(data))
}

// DecodeAnswers converts a decoded {questionID: answer} document into
// Answers. Values of an unsupported shape are kept as invalid answers.
func DecodeAnswers(payload any) (model.Answers, error) {
	m, ok := normalizeMap(payload).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("answers: expected an object keyed by question id, got %T", payload)
	}
	out := make(model.Answers, len(m))
	for id, v := range m {
		out[id] = model.DecodeAnswer(normalizeMap(v))
	}
	return out, nil
}
