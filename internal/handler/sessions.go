package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizforge/internal/generate"
	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/session"
)

// maxUploadBytes bounds a whole upload request.
const maxUploadBytes = generate.MaxFiles*generate.MaxFileSize + 1<<20

// maxJSONBytes bounds small JSON request bodies.
const maxJSONBytes = 1 << 20

var errStaleResult = errors.New("stale generation result")

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, id string, s session.Session) {
	writeJSON(w, status, newSessionView(r.Context(), id, s))
}

// transition applies fn to the session named in the URL and writes the result.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(session.Session) (session.Session, error)) {
	id := chi.URLParam(r, "sessionID")
	s, err := h.sessions.Update(id, fn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, id, s)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, s := h.sessions.Create()
	slog.Info("session created", "session", id)
	h.respond(w, r, http.StatusCreated, id, s)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, id, s)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, errRequestTooLarge)
			return
		}
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, r, &generate.ConstraintError{Code: generate.CodeNoFiles})
		return
	}

	// Reject on declared sizes before reading any content.
	files := make([]model.SourceFile, len(headers))
	for i, fh := range headers {
		files[i] = model.SourceFile{Name: fh.Filename, Size: fh.Size}
	}
	if err := generate.CheckFiles(files); err != nil {
		writeError(w, r, err)
		return
	}
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, r, fmt.Errorf("open upload %s: %w", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, r, fmt.Errorf("read upload %s: %w", fh.Filename, err))
			return
		}
		files[i].Data = data
		files[i].Size = int64(len(data))
	}

	h.transition(w, r, func(s session.Session) (session.Session, error) {
		return s.AddFiles(files...)
	})
}

func (h *Handler) handleClearFiles(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, session.Session.ClearFiles)
}

func (h *Handler) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var opts session.Options
	if err := decodeJSON(r, &opts); err != nil {
		writeError(w, r, err)
		return
	}
	h.transition(w, r, func(s session.Session) (session.Session, error) {
		return s.Configure(opts)
	})
}

// handleGenerate submits the session and runs the generator in the
// background. The client polls the session until it leaves generating.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	var (
		ticket session.Ticket
		req    generate.Request
	)
	s, err := h.sessions.Update(id, func(s session.Session) (session.Session, error) {
		next, t, rq, err := s.Submit()
		if err != nil {
			return s, err
		}
		ticket, req = t, rq
		return next, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("generation started", "session", id, "files", len(req.Files), "quiz_type", req.QuizType, "count", req.QuestionCount)
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.runGeneration(id, ticket, req)
	}()

	h.respond(w, r, http.StatusAccepted, id, s)
}

func (h *Handler) runGeneration(id string, ticket session.Ticket, req generate.Request) {
	res := h.gen.Generate(h.ctx, req)
	_, err := h.sessions.Update(id, func(s session.Session) (session.Session, error) {
		next, applied := s.Apply(ticket, res, h.now())
		if !applied {
			return s, errStaleResult
		}
		return next, nil
	})
	switch {
	case err == nil:
		slog.Info("generation applied", "session", id, "ok", res.OK)
	case errors.Is(err, errStaleResult), errors.Is(err, session.ErrNotFound):
		slog.Info("generation result dropped", "session", id, "reason", err)
	default:
		slog.Error("apply generation result", "session", id, "error", err)
	}
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var ans model.Answer
	if err := decodeJSON(r, &ans); err != nil {
		writeError(w, r, err)
		return
	}
	qid := chi.URLParam(r, "questionID")
	h.transition(w, r, func(s session.Session) (session.Session, error) {
		return s.Answer(qid, ans)
	})
}

// handleAnswerPair sets one pair of a matching answer, keeping the others.
func (h *Handler) handleAnswerPair(w http.ResponseWriter, r *http.Request) {
	pair, err := strconv.Atoi(chi.URLParam(r, "pair"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid pair index", errBadRequest))
		return
	}
	var right string
	if err := decodeJSON(r, &right); err != nil {
		writeError(w, r, err)
		return
	}
	qid := chi.URLParam(r, "questionID")
	h.transition(w, r, func(s session.Session) (session.Session, error) {
		if q, ok := s.Quiz.Find(qid); ok && (q.Type != model.TypeMatching || pair < 0 || pair >= len(q.Pairs)) {
			return s, fmt.Errorf("%w: question %s has no pair %d", errBadRequest, qid, pair)
		}
		return s.Answer(qid, s.Answers[qid].WithMatch(pair, right))
	})
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, session.Session.Next)
}

func (h *Handler) handlePrev(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, session.Session.Prev)
}

func (h *Handler) handleGoto(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid index", errBadRequest))
		return
	}
	h.transition(w, r, func(s session.Session) (session.Session, error) {
		return s.Goto(idx)
	})
}

func (h *Handler) handleFinish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s, err := h.sessions.Update(id, func(s session.Session) (session.Session, error) {
		return s.Finish(h.scorer, h.now())
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("quiz finished", "session", id, "percent", s.Score.Percent, "elapsed", s.Elapsed())
	h.respond(w, r, http.StatusOK, id, s)
}

func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, session.Session.Restart)
}
