// Package server exposes FolioService over HTTP with a JSON envelope.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"folio/internal/config"
	"folio/internal/folio"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 120 * time.Second
	idleTimeout  = 120 * time.Second

	// maxUploadBytes bounds raw image and artifact bodies.
	maxUploadBytes = 64 << 20
)

type Server struct {
	*http.Server
	logger zerolog.Logger
}

// NewServer builds the HTTP server for cfg. Mutations go through dispatcher,
// reads go straight to service.
func NewServer(cfg config.ServerConfig, service *folio.FolioService, dispatcher *folio.Dispatcher, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "http").Logger()
	return &Server{
		Server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(cfg, service, dispatcher, logger),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		logger: logger,
	}
}

// NewRouter returns the chi router with all routes and middleware mounted.
func NewRouter(cfg config.ServerConfig, service *folio.FolioService, dispatcher *folio.Dispatcher, logger zerolog.Logger) http.Handler {
	h := &handlers{service: service, dispatcher: dispatcher, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withActor)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(cfg.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]string{"status": "ok"})
	})

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.listProjects)
		r.Post("/", h.createProject)

		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", h.getProject)
			r.Patch("/", h.updateProject)
			r.Delete("/", h.deleteProject)

			r.Post("/images", h.addImage)
			r.Put("/images/{imageID}/order", h.moveImage)

			r.Post("/artifacts", h.addLinkArtifact)
			r.Post("/artifacts/file", h.addFileArtifact)

			r.Get("/invitations", h.listInvitations)
			r.Post("/invitations", h.invite)
			r.Post("/invitations/{invitationID}/accept", h.acceptInvitation)
			r.Delete("/invitations/{invitationID}", h.declineInvitation)

			r.Get("/collaborators", h.listCollaborators)
			r.Get("/collaborators/{userID}", h.isCollaborator)
			r.Put("/collaborators/{userID}/visibility", h.setVisibility)
			r.Delete("/collaborators/{userID}", h.removeCollaborator)
		})
	})

	r.Delete("/images/{imageID}", h.deleteImage)
	r.Get("/images/{imageID}/content", h.imageContent)
	r.Get("/artifacts/{artifactID}/content", h.artifactContent)
	r.Delete("/artifacts/{artifactID}", h.deleteArtifact)

	return r
}

// Start serves until the server is shut down and reports the result on errCh.
func (s *Server) Start(errCh chan<- error) {
	s.logger.Info().Str("addr", s.Addr).Msg("server started")
	err := s.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	errCh <- err
}

// ShutdownGracefully stops accepting connections and waits up to timeout for
// in-flight requests.
func (s *Server) ShutdownGracefully(timeout time.Duration) error {
	s.logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("shutdown failed")
		return err
	}
	s.logger.Info().Msg("server stopped")
	return nil
}
