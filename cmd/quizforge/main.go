package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/quizforge/internal/generate"
	"github.com/pavelanni/quizforge/internal/handler"
	appI18n "github.com/pavelanni/quizforge/internal/i18n"
	"github.com/pavelanni/quizforge/internal/llm"
	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/quiz"
	"github.com/pavelanni/quizforge/internal/scoring"
	"github.com/pavelanni/quizforge/internal/session"
	"github.com/pavelanni/quizforge/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizforge",
		Short: "Generate quizzes from documents and take them",
	}

	serve := serveCmd()
	root.AddCommand(serve, scoreCmd(), validateCmd(), preferencesCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizforge --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "quizforge.db", "SQLite database path for preferences (empty disables saving)")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("generator", "llm", "Generator backend (llm, http)")
	f.String("generator-url", "http://localhost:8000/api/generate", "Generator service URL for the http backend")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Float32("llm-temperature", llm.DefaultTemperature, "LLM sampling temperature")
	f.Duration("generate-timeout", 3*time.Minute, "Upper bound for one generation call")
	f.Bool("strict-validation", false, "Fail generation when any generated question is invalid")
	f.Bool("partial-matching", false, "Give partial credit for matching questions")
	f.Duration("session-ttl", session.DefaultTTL, "Idle time before a session is discarded")
	f.StringSlice("cors-origins", nil, "Allowed CORS origins (repeatable)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answers file against a quiz file",
		RunE:  runScore,
	}
	f := cmd.Flags()
	f.String("quiz", "", "Quiz file, JSON or YAML (required)")
	f.String("answers", "", "Answers file keyed by question id, JSON or YAML (required)")
	f.Bool("partial-matching", false, "Give partial credit for matching questions")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("quiz")
	_ = cmd.MarkFlagRequired("answers")

	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate raw generator output and print the result",
		RunE:  runValidate,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "-", "Generator output file (- for stdin)")
	f.IntP("count", "n", 0, "Requested question count (0 = not checked)")
	f.Bool("strict-validation", false, "Fail when any question is invalid")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func preferencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preferences",
		Short: "Show or change stored UI preferences",
		RunE:  runPreferences,
	}
	f := cmd.Flags()
	f.String("db", "quizforge.db", "SQLite database path")
	f.String("theme", "", "Theme ("+strings.Join(model.Themes, ", ")+")")
	f.String("font", "", "Font ("+strings.Join(model.Fonts, ", ")+")")
	f.String("color-combo", "", "Color combination ("+strings.Join(model.ColorCombos, ", ")+")")
	f.String("card-style", "", "Card style ("+strings.Join(model.CardStyles, ", ")+")")
	f.Bool("animations", true, "Enable animations")
	f.Bool("reset", false, "Restore default preferences")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizforge")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizforge")
	v.AddConfigPath("/etc/quizforge")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// newBackend builds the generator backend selected by the "generator" setting.
func newBackend(ctx context.Context, v *viper.Viper) (generate.Backend, error) {
	switch kind := strings.ToLower(v.GetString("generator")); kind {
	case "llm":
		c := llm.New(
			v.GetString("llm-url"),
			v.GetString("llm-key"),
			v.GetString("llm-model"),
			float32(v.GetFloat64("llm-temperature")),
		)
		if err := c.Ping(ctx); err != nil {
			return nil, fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
		return c, nil
	case "http":
		url := v.GetString("generator-url")
		if url == "" {
			return nil, errors.New("generator-url is required for the http generator")
		}
		return generate.NewHTTPBackend(url), nil
	default:
		return nil, fmt.Errorf("unknown generator %q (want llm or http)", kind)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	var db *store.Store
	if path := v.GetString("db"); path != "" {
		var err error
		db, err = store.New(path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
	} else {
		slog.Warn("no database configured, preferences are not saved")
	}

	backend, err := newBackend(ctx, v)
	if err != nil {
		return err
	}
	gen := generate.New(backend,
		generate.WithStrict(v.GetBool("strict-validation")),
		generate.WithTimeout(v.GetDuration("generate-timeout")),
	)

	ttl := v.GetDuration("session-ttl")
	reg := session.NewRegistry(ttl)
	go reg.RunCleanup(ctx, max(ttl/4, time.Minute))

	h := handler.New(reg, gen, db, handler.Config{
		PartialMatching: v.GetBool("partial-matching"),
		CORSOrigins:     v.GetStringSlice("cors-origins"),
	})
	defer h.Close()

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("starting server",
		"addr", addr,
		"generator", v.GetString("generator"),
		"lang", lang,
		"db", v.GetString("db"),
		"strict_validation", v.GetBool("strict-validation"),
		"partial_matching", v.GetBool("partial-matching"),
		"session_ttl", ttl,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// scoreReport is the output of the score command.
type scoreReport struct {
	model.ScoreResult
	Band   scoring.Band `json:"band"`
	Issues int          `json:"validationIssues,omitempty"`
}

func runScore(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	q, rep, err := loadQuiz(v.GetString("quiz"))
	if err != nil {
		return err
	}
	if !rep.OK() {
		slog.Warn("quiz has invalid questions, scoring the valid ones", "issues", rep.String())
	}

	answersPath := v.GetString("answers")
	data, err := readInput(answersPath)
	if err != nil {
		return err
	}
	payload, err := quiz.Decode(data, answersPath)
	if err != nil {
		return fmt.Errorf("parse answers: %w", err)
	}
	answers, err := quiz.DecodeAnswers(payload)
	if err != nil {
		return err
	}

	sc := scoring.New(scoring.WithPartialMatching(v.GetBool("partial-matching")))
	res := sc.Score(q, answers)
	slog.Info("quiz scored", "questions", q.Len(), "answers", len(answers), "percent", res.Percent)

	return writeOutput(v.GetString("output"), scoreReport{
		ScoreResult: res,
		Band:        scoring.BandFor(res.Percent),
		Issues:      len(rep.Issues),
	})
}

func loadQuiz(path string) (model.Quiz, quiz.Report, error) {
	data, err := readInput(path)
	if err != nil {
		return model.Quiz{}, quiz.Report{}, err
	}
	payload, err := quiz.Decode(data, path)
	if err != nil {
		return model.Quiz{}, quiz.Report{}, fmt.Errorf("parse quiz: %w", err)
	}
	q, rep := quiz.Validate(payload)
	if rep.Valid == 0 {
		return model.Quiz{}, rep, fmt.Errorf("quiz %s has no valid questions: %s", path, rep.String())
	}
	return q, rep, nil
}

func runValidate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	data, err := readInput(v.GetString("input"))
	if err != nil {
		return err
	}
	c := generate.New(nil, generate.WithStrict(v.GetBool("strict-validation")))
	res := c.Interpret(v.GetInt("count"), generate.Output{Payload: data}, nil)
	// Raw echoes the input.
	res.Raw = ""

	if err := writeOutput(v.GetString("output"), res); err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("validation failed: %s", res.Error)
	}
	slog.Info("generator output is valid", "questions", res.Quiz.Len())
	return nil
}

func runPreferences(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	p, err := db.LoadPreferences()
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	changed := false
	if v.GetBool("reset") {
		p, changed = model.DefaultPreferences(), true
	}
	for flag, field := range map[string]*string{
		"theme":       &p.Theme,
		"font":        &p.Font,
		"color-combo": &p.ColorCombo,
		"card-style":  &p.CardStyle,
	} {
		if val := v.GetString(flag); val != "" {
			*field, changed = val, true
		}
	}
	if cmd.Flags().Changed("animations") {
		p.Animations, changed = v.GetBool("animations"), true
	}

	if changed {
		if err := db.SavePreferences(p); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
		slog.Info("preferences saved", "db", v.GetString("db"))
	}
	return writeOutput(v.GetString("output"), p)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func writeOutput(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if path == "" || path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
