// Package httpserver exposes the service over HTTP: subtitle processing,
// vocabulary progress, model manager observability, and health probes.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/app"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/modelmanager"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/platform/config"
)

type appService interface {
	ProcessSubtitles(ctx context.Context, userID uuid.UUID, source string, srt []byte, sourceLang, targetLang string) (*app.Report, error)
	ProcessAudio(ctx context.Context, userID uuid.UUID, source, audioPath, sourceLang, targetLang string) (*app.Report, error)
	ReviewWord(ctx context.Context, userID uuid.UUID, lemma, language string, correct bool) (*domain.Progress, error)
	SetConfidence(ctx context.Context, userID uuid.UUID, lemma, language string, confidence int) (*domain.Progress, error)
	VocabularyStats(ctx context.Context, userID uuid.UUID, language string) (*domain.VocabularyStats, error)
	VocabularyList(ctx context.Context, userID uuid.UUID, language string) ([]domain.Progress, error)
	ModelUsage() modelmanager.Stats
	UnloadModel(ctx context.Context, class modelmanager.Class) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app          appService
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
