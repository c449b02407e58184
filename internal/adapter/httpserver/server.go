package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"sixhats/internal/domain"
	"sixhats/internal/usecase/chat"
)

// Session is the command surface the page drives.
type Session interface {
	Submit(ctx context.Context, text string) (chat.TurnResult, error)
	Reset()
	Snapshot() domain.SessionState
}

// Server is the HTTP transport for the one conversation session.
type Server struct {
	Session Session
	Logger  *zap.Logger
}

func (s Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":   true,
			"time": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Page
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /submit", s.handleFormSubmit)
	mux.HandleFunc("POST /reset", s.handleFormReset)

	// JSON
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	return mux
}

func (s Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := renderPage(w, s.Session.Snapshot()); err != nil {
		s.logger().Error("render page", zap.Error(err))
	}
}

func (s Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	_, err := s.Session.Submit(r.Context(), r.FormValue("prompt"))
	if err != nil && !errors.Is(err, chat.ErrEmptyInput) && !errors.Is(err, chat.ErrSessionReset) {
		s.logger().Error("submit turn", zap.Error(err))
		http.Error(w, "turn failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s Server) handleFormReset(w http.ResponseWriter, r *http.Request) {
	s.Session.Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s Server) handleSession(w http.ResponseWriter, r *http.Request) {
	state := s.Session.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"transcript": state.Transcript,
		"synthesis":  state.Synthesis,
	})
}

func (s Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	type reqBody struct {
		Text string `json:"text"`
	}
	var body reqBody
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	res, err := s.Session.Submit(r.Context(), body.Text)
	if errors.Is(err, chat.ErrEmptyInput) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "text must not be blank"})
		return
	}
	if errors.Is(err, chat.ErrSessionReset) {
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	if err != nil {
		s.logger().Error("submit turn", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"turn":       res.Turn(),
		"synthesis":  res.Synthesis,
		"transcript": res.Transcript,
	})
}

func (s Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.Session.Reset()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func readJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
