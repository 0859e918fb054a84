// Package api is the HTTP surface for UI collaborators. Auth lives outside
// this service: callers pass viewer and actor ids explicitly.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chirpd/internal/core"
	"chirpd/internal/effects"
	"chirpd/internal/feed"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type contextKey string

const loggerContextKey = contextKey("logger")

type Server struct {
	Config *core.Config
	Logger *slog.Logger

	Assembler   *feed.Assembler
	Coordinator *effects.Coordinator
	Chirps      core.ChirpRepository
	Users       core.UserRepository
	Follows     core.FollowRepository

	server *http.Server
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "api.Server")

	r := chi.NewMux()

	logger := func(ctx context.Context) *slog.Logger {
		return ctx.Value(loggerContextKey).(*slog.Logger)
	}

	r.Use(
		// json content type
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		},

		// Request-scoped logger with a request id
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger := s.Logger.With(
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", uuid.NewString(),
				)
				ctx := context.WithValue(r.Context(), loggerContextKey, logger)
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		},

		// Logging
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

				next.ServeHTTP(sw, r)

				duration := time.Since(start)
				logger(r.Context()).Info("request", "duration", duration, "status", sw.status)
			})
		},

		// Recovering panics and logging
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if err := recover(); err != nil {
						logger(r.Context()).Error("panic recovered", "error", err)
						http.Error(w, `{"message": "Internal Server Error"}`, http.StatusInternalServerError)
					}
				}()
				next.ServeHTTP(w, r)
			})
		},
	)

	s.routes(r)

	s.server = &http.Server{
		Handler:           r,
		Addr:              s.Config.ListenAddr,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	return nil
}

func (s *Server) Run(ctx context.Context) error {
	s.Logger.Info("Starting API server", "addr", s.server.Addr)

	go func() {
		<-ctx.Done()
		s.server.Shutdown(context.TODO()) //nolint:errcheck
	}()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/feed", s.getFeed)
		r.Get("/hashtags/{tag}", s.getHashtag)

		r.Post("/chirps", s.createChirp)
		r.Delete("/chirps/{id}", s.deleteChirp)
		r.Post("/chirps/{id}/replies", s.createReply)
		r.Post("/chirps/{id}/reactions", s.react)
		r.Post("/chirps/{id}/reposts", s.repost)

		r.Get("/users/{id}", s.getUser)
		r.Patch("/users/{id}", s.updateProfile)
		r.Get("/users/{id}/timeline", s.getTimeline)
		r.Get("/users/{id}/stats", s.getUserStats)
		r.Post("/users/{id}/crystals", s.adjustCrystals)
		r.Get("/users/{id}/notifications", s.listNotifications)
		r.Get("/users/handle/{handle}", s.getUserByHandle)

		r.Post("/follows", s.follow)
		r.Delete("/follows", s.unfollow)
		r.Post("/blocks", s.block)
		r.Delete("/blocks", s.unblock)

		r.Post("/notifications/{id}/read", s.markNotificationRead)
	})
}
