package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playgrid/roomsync-backend/internal/entity"
	"github.com/playgrid/roomsync-backend/internal/usecase"
)

type roomService interface {
	Join(ctx context.Context, roomID, deviceID string) (*entity.Room, error)
	Leave(ctx context.Context, roomID, deviceID string) (*entity.Room, error)
	ApplyMove(ctx context.Context, roomID, deviceID string, cell int) (*entity.Room, error)
	Reset(ctx context.Context, roomID string) (*entity.Room, error)
}

type sessionReconciler interface {
	Reconcile(ctx context.Context, session usecase.Session) usecase.Session
}

type Server struct {
	logger     *slog.Logger
	rooms      roomService
	reconciler sessionReconciler
	choices    []string
}

func New(logger *slog.Logger, rooms roomService, reconciler sessionReconciler, choices []string) *Server {
	return &Server{
		logger:     logger,
		rooms:      rooms,
		reconciler: reconciler,
		choices:    choices,
	}
}

// Start - starts the HTTP server and shuts it down when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	router := chi.NewRouter()

	router.Get("/ping", that.handlePing)
	router.Get("/rooms", that.handleRoomChoices)
	router.Get("/rooms/{roomID}", that.handleState)
	router.Post("/rooms/{roomID}/join", that.handleJoin)
	router.Post("/rooms/{roomID}/leave", that.handleLeave)
	router.Post("/rooms/{roomID}/move", that.handleMove)
	router.Post("/rooms/{roomID}/reset", that.handleReset)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
