package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "AppTitle"); got != "QuizForge" {
		t.Errorf("T(AppTitle) = %q, want 'QuizForge'", got)
	}
	if got := T(ctx, "ErrBusy"); got != "A quiz is already being generated." {
		t.Errorf("T(ErrBusy) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	if got := T(ctx, "StateFinished"); got != "Результаты" {
		t.Errorf("T(StateFinished) = %q, want 'Результаты'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	tests := []struct {
		lang  string
		count int
		want  string
	}{
		{"en", 1, "1 question answered"},
		{"en", 5, "5 questions answered"},
		{"ru", 1, "Отвечен 1 вопрос"},
		{"ru", 3, "Отвечено 3 вопроса"},
		{"ru", 7, "Отвечено 7 вопросов"},
	}
	for _, tt := range tests {
		ctx := initLang(t, tt.lang)
		if got := Tp(ctx, "QuestionsAnswered", tt.count); got != tt.want {
			t.Errorf("%s Tp(QuestionsAnswered, %d) = %q, want %q", tt.lang, tt.count, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ErrTooManyFiles", map[string]any{"Limit": 10})
	if got != "You can upload at most 10 files." {
		t.Errorf("Td(ErrTooManyFiles) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestLocalesHaveSameKeys(t *testing.T) {
	initLang(t, "en")
	if n := len(Languages()); n != 2 {
		t.Errorf("loaded %d languages, want 2", n)
	}
	en := WithLocalizer(context.Background(), NewLocalizer("en"))
	ru := WithLocalizer(context.Background(), NewLocalizer("ru"))
	for _, id := range []string{"AppTitle", "StateCollecting", "BandHigh", "ErrNoFiles", "ErrInternal", "ErrSessionNotFound"} {
		if T(en, id) == id || T(ru, id) == id {
			t.Errorf("message %s missing in a locale", id)
		}
	}
}

func TestMiddlewareNegotiates(t *testing.T) {
	initLang(t, "en")
	var got string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "StateAnswering")
	}))

	tests := []struct {
		name, query, accept, want string
	}{
		{"default", "", "", "Answering"},
		{"accept-language", "", "ru-RU,ru;q=0.9,en;q=0.5", "Прохождение"},
		{"query wins", "?lang=en", "ru", "Answering"},
		{"unsupported", "", "fr", "Answering"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
