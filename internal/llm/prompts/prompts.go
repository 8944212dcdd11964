package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/quizforge/internal/generate"
	"github.com/pavelanni/quizforge/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

// MaxDocumentRunes caps how much of one document goes into a prompt.
const MaxDocumentRunes = 30000

var (
	documentTagRegex        = regexp.MustCompile(`(?i)</?\s*document\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

var (
	loadOnce       sync.Once
	loadErr        error
	systemTemplate *template.Template
	userTemplate   *template.Template
)

// Document is one source file rendered into the prompt.
type Document struct {
	Name    string
	Content string
}

// Data holds template data for generation prompts.
type Data struct {
	Count      int
	Strategy   model.Strategy
	Difficulty model.Difficulty
	Documents  []Document
}

// Load parses the prompt templates. A nil fsys uses the embedded templates.
// Only the first call has any effect.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		if fsys == nil {
			fsys = templateFS
		}
		systemTemplate, loadErr = parse(fsys, "templates/system.txt")
		if loadErr != nil {
			return
		}
		userTemplate, loadErr = parse(fsys, "templates/user.txt")
	})
	return loadErr
}

func parse(fsys fs.FS, name string) (*template.Template, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.New("failed to read prompt file " + name + ": " + err.Error())
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, errors.New("failed to parse prompt template " + name + ": " + err.Error())
	}
	return tmpl, nil
}

// Build renders the system and user prompts for a generation request.
func Build(req generate.Request) (system, user string, err error) {
	if err := Load(nil); err != nil {
		return "", "", fmt.Errorf("templates load failed: %w", err)
	}

	data := Data{
		Count:      req.QuestionCount,
		Strategy:   req.QuizType,
		Difficulty: req.Difficulty,
	}
	for _, f := range req.Files {
		data.Documents = append(data.Documents, Document{
			Name:    sanitizeName(f.Name),
			Content: DocumentText(f),
		})
	}

	var sb, ub bytes.Buffer
	if err := systemTemplate.Execute(&sb, data); err != nil {
		return "", "", err
	}
	if err := userTemplate.Execute(&ub, data); err != nil {
		return "", "", err
	}
	return sb.String(), ub.String(), nil
}

// DocumentText returns the text of f for the prompt. Files that are not
// valid UTF-8 are replaced with a placeholder.
func DocumentText(f model.SourceFile) string {
	if !utf8.Valid(f.Data) {
		return fmt.Sprintf("[binary document %s, %d bytes: text extraction not supported]", f.Name, len(f.Data))
	}
	return sanitizeContent(string(f.Data))
}

func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '"', '<', '>', '\n', '\r':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return "untitled"
	}
	return name
}

func sanitizeContent(text string) string {
	text = documentTagRegex.ReplaceAllString(text, "")
	text = systemInstructionsRegex.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if text == "" {
		return "[Empty document]"
	}

	if utf8.RuneCountInString(text) > MaxDocumentRunes {
		runes := []rune(text)
		runes = runes[:MaxDocumentRunes]
		text = string(runes) + "\n\n[Document truncated due to length]"
	}

	return text
}
