// Package http serves the JSON state API, the legacy command endpoint and
// the UPnP description.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"led-json-bridge/internal/logging"
	"led-json-bridge/internal/ports"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Deps holds what the server needs. WS is mounted at /ws when set.
type Deps struct {
	State   ports.StatePort
	Config  ports.ConfigPort
	WS      http.Handler
	Logger  *logging.Logger
	IP      string
	Port    int
	Name    string
	UUID    string
	MaxBody int64
}

type Server struct {
	state   ports.StatePort
	config  ports.ConfigPort
	ws      http.Handler
	logger  *logging.Logger
	ip      string
	port    int
	name    string
	uuid    string
	maxBody int64
}

func NewServer(deps Deps) *Server {
	return &Server{
		state:   deps.State,
		config:  deps.Config,
		ws:      deps.WS,
		logger:  deps.Logger.With("component", "http"),
		ip:      deps.IP,
		port:    deps.Port,
		name:    deps.Name,
		uuid:    deps.UUID,
		maxBody: deps.MaxBody,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(middleware.StripSlashes)

	r.Get("/description.xml", s.handleDescription)
	r.Get("/win", s.handleLegacy)
	r.Get("/presets.json", s.handlePresets)
	if s.ws != nil {
		r.Handle("/ws", s.ws)
	}

	r.Route("/json", func(r chi.Router) {
		r.Get("/", s.handleFull)
		r.Post("/", s.handleApply)
		r.Get("/state", s.handleState)
		r.Post("/state", s.handleApply)
		r.Get("/eff", s.handleRawEffects)
		r.Get("/pal", s.handleRawPalettes)
		r.Get("/effects", s.handleEffects)
		r.Get("/palx", s.handlePalettePage)
		r.Get("/live", s.handleLive)
		r.Get("/presets", s.handlePresets)
		r.Get("/cfg", s.handleGetConfig)
		r.Post("/cfg", s.handleUpdateConfig)
		r.NotFound(s.handleNotImplemented)
	})

	// Older clients send commands as /win&A=128.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if isLegacyPath(r.URL.Path) {
			s.handleLegacy(w, r)
			return
		}
		http.NotFound(w, r)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8" ?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
<specVersion>
<major>1</major>
<minor>0</minor>
</specVersion>
<URLBase>http://%s/</URLBase>
<device>
<deviceType>urn:schemas-upnp-org:device:Basic:1</deviceType>
<friendlyName>%s</friendlyName>
<manufacturer>ledbridge</manufacturer>
<modelName>ledbridge</modelName>
<UDN>uuid:%s</UDN>
<presentationURL>/</presentationURL>
</device>
</root>`, s.hostPort(), xmlEscape(s.name), s.uuid)
}

func (s *Server) hostPort() string {
	return net.JoinHostPort(s.ip, strconv.Itoa(s.port))
}
