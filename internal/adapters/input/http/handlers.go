package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"led-json-bridge/internal/domain/model"
)

// reply runs write into a scratch buffer so a failure can still produce a
// proper status line.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, write func(ctx context.Context, w io.Writer) error) {
	var body bytes.Buffer
	if err := write(r.Context(), &body); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // the client may be gone
	w.Write(body.Bytes())
}

func (s *Server) handleFull(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r, s.state.WriteFull)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r, s.state.WriteState)
}

func (s *Server) handleEffects(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r, s.state.WriteEffects)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r, s.state.WriteLive)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r, s.state.WritePresets)
}

func (s *Server) handlePalettePage(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	s.reply(w, r, func(ctx context.Context, w io.Writer) error {
		return s.state.WritePalettePage(ctx, w, page)
	})
}

func (s *Server) handleRawEffects(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, s.state.EffectsRaw())
}

func (s *Server) handleRawPalettes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, s.state.PalettesRaw())
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.reply(w, r, func(ctx context.Context, w io.Writer) error {
		return s.state.Apply(ctx, body, model.CallModeDirectChange, w)
	})
}

func (s *Server) handleLegacy(w http.ResponseWriter, r *http.Request) {
	cmd := legacyCommand(r.URL.Path, r.URL.RawQuery)
	s.reply(w, r, func(ctx context.Context, w io.Writer) error {
		return s.state.ApplyLegacy(ctx, cmd, w)
	})
}

func (s *Server) handleNotImplemented(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "Not implemented"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.config.GetConfig(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	cfg := model.DefaultConfig()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(cfg); err != nil {
		writeErrorCode(w, http.StatusBadRequest, errCodeJSON)
		return
	}
	if err := s.config.UpdateConfig(r.Context(), cfg); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func isLegacyPath(path string) bool {
	return strings.HasPrefix(path, "/win&")
}

// legacyCommand joins the arguments of /win&A=1 and /win?A=1 forms.
func legacyCommand(path, query string) string {
	cmd := strings.TrimPrefix(strings.TrimPrefix(path, "/win"), "&")
	if query != "" {
		if cmd != "" {
			cmd += "&"
		}
		cmd += query
	}
	return cmd
}
