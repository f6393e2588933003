package httpserver

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/app"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/modelmanager"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/platform/config"
)

// mockAppService implements appService with overridable functions.
type mockAppService struct {
	processSubtitlesFn func(ctx context.Context, userID uuid.UUID, source string, srt []byte, sourceLang, targetLang string) (*app.Report, error)
	processAudioFn     func(ctx context.Context, userID uuid.UUID, source, audioPath, sourceLang, targetLang string) (*app.Report, error)
	reviewWordFn       func(ctx context.Context, userID uuid.UUID, lemma, language string, correct bool) (*domain.Progress, error)
	setConfidenceFn    func(ctx context.Context, userID uuid.UUID, lemma, language string, confidence int) (*domain.Progress, error)
	statsFn            func(ctx context.Context, userID uuid.UUID, language string) (*domain.VocabularyStats, error)
	listFn             func(ctx context.Context, userID uuid.UUID, language string) ([]domain.Progress, error)
	modelUsageFn       func() modelmanager.Stats
	unloadModelFn      func(ctx context.Context, class modelmanager.Class) error
}

func (m *mockAppService) ProcessSubtitles(ctx context.Context, userID uuid.UUID, source string, srt []byte, sourceLang, targetLang string) (*app.Report, error) {
	if m.processSubtitlesFn != nil {
		return m.processSubtitlesFn(ctx, userID, source, srt, sourceLang, targetLang)
	}
	return &app.Report{Source: source}, nil
}

func (m *mockAppService) ProcessAudio(ctx context.Context, userID uuid.UUID, source, audioPath, sourceLang, targetLang string) (*app.Report, error) {
	if m.processAudioFn != nil {
		return m.processAudioFn(ctx, userID, source, audioPath, sourceLang, targetLang)
	}
	return &app.Report{Source: source}, nil
}

func (m *mockAppService) ReviewWord(ctx context.Context, userID uuid.UUID, lemma, language string, correct bool) (*domain.Progress, error) {
	if m.reviewWordFn != nil {
		return m.reviewWordFn(ctx, userID, lemma, language, correct)
	}
	return &domain.Progress{UserID: userID, Lemma: lemma, Language: language}, nil
}

func (m *mockAppService) SetConfidence(ctx context.Context, userID uuid.UUID, lemma, language string, confidence int) (*domain.Progress, error) {
	if m.setConfidenceFn != nil {
		return m.setConfidenceFn(ctx, userID, lemma, language, confidence)
	}
	return &domain.Progress{UserID: userID, Lemma: lemma, Language: language, Confidence: confidence}, nil
}

func (m *mockAppService) VocabularyStats(ctx context.Context, userID uuid.UUID, language string) (*domain.VocabularyStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, userID, language)
	}
	return &domain.VocabularyStats{}, nil
}

func (m *mockAppService) VocabularyList(ctx context.Context, userID uuid.UUID, language string) ([]domain.Progress, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, language)
	}
	return nil, nil
}

func (m *mockAppService) ModelUsage() modelmanager.Stats {
	if m.modelUsageFn != nil {
		return m.modelUsageFn()
	}
	return modelmanager.Stats{Classes: map[string]modelmanager.ClassStats{}}
}

func (m *mockAppService) UnloadModel(ctx context.Context, class modelmanager.Class) error {
	if m.unloadModelFn != nil {
		return m.unloadModelFn(ctx, class)
	}
	return nil
}

type serverOption func(*Server)

func withHealthChecks(checks ...HealthCheck) serverOption {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func newTestServer(t *testing.T, app *mockAppService, opts ...serverOption) *Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:               "test",
		Port:                 "8080",
		ModelUnloadTimeout:   5 * time.Second,
		ProcessRatePerSecond: 100,
		ProcessRateBurst:     100,
	}

	srv := NewServer(cfg, app, nil)
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}
