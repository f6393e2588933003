// Package app provides the application service layer.
//
// Orchestrates use cases: subtitle processing, vocabulary reviews, model
// lifecycle queries. Sits between HTTP handlers and domain repositories.
// Depends on domain interfaces, not concrete implementations.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
	apperrors "github.com/Jonathangadeaharder/LangPlug-sub001/internal/errors"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/metrics"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/modelmanager"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/pipeline"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/subtitle"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/vocab"
)

// Service is the application layer. It owns the processing pipeline and
// orchestrates all use cases.
type Service struct {
	progress domain.ProgressRepository
	models   *modelmanager.Manager
	cache    domain.TranslationCache
	filters  subtitle.Chain
	clock    clockwork.Clock

	stopOnce sync.Once
	stops    []func()
}

// NewService creates the application layer service. Stop functions for
// background work the service depends on (cache eviction, idle sweeping)
// are handed over here and halted by Stop.
func NewService(progress domain.ProgressRepository, models *modelmanager.Manager, cache domain.TranslationCache, clock clockwork.Clock, stops ...func()) *Service {
	return &Service{
		progress: progress,
		models:   models,
		cache:    cache,
		filters:  subtitle.DefaultChain(),
		clock:    clock,
		stops:    stops,
	}
}

// Stop halts the background work owned by the service. Safe to call more
// than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		for _, stop := range s.stops {
			stop()
		}
	})
}

// Report is the result of one subtitle processing run.
type Report struct {
	Source        string                   `json:"source"`
	CueCount      int                      `json:"cue_count"`
	WordCount     int                      `json:"word_count"`
	Items         []domain.VocabularyItem  `json:"items"`
	Coverage      vocab.Coverage           `json:"coverage"`
	NewLemmas     int                      `json:"new_lemmas"`
	StepDurations map[string]time.Duration `json:"step_durations"`
}

// ProcessSubtitles runs an uploaded SRT file through the pipeline, grades its
// coverage against the user's vocabulary, and seeds progress rows for lemmas
// the user has never seen.
func (s *Service) ProcessSubtitles(ctx context.Context, userID uuid.UUID, source string, srt []byte, sourceLang, targetLang string) (*Report, error) {
	cues, err := subtitle.Parse(bytes.NewReader(srt))
	if err != nil {
		return nil, apperrors.ValidationError("invalid subtitle file").WithField("source", source).WithField("cause", err.Error())
	}
	if len(cues) == 0 {
		return nil, apperrors.ValidationError("subtitle file contains no usable cues").WithField("source", source)
	}

	job := pipeline.NewJob(source, sourceLang, targetLang)
	job.Cues = cues

	return s.runJob(ctx, userID, job)
}

// ProcessAudio transcribes an audio source first, then runs the same pipeline
// as ProcessSubtitles.
func (s *Service) ProcessAudio(ctx context.Context, userID uuid.UUID, source, audioPath, sourceLang, targetLang string) (*Report, error) {
	job := pipeline.NewJob(source, sourceLang, targetLang)
	job.AudioPath = audioPath

	return s.runJob(ctx, userID, job)
}

func (s *Service) runJob(ctx context.Context, userID uuid.UUID, job *pipeline.Job) (*Report, error) {
	p := pipeline.New(s.clock,
		pipeline.Transcribe{Models: s.models},
		pipeline.FilterCues{Chain: s.filters},
		pipeline.Lemmatize{Models: s.models},
		pipeline.ExtractVocabulary{},
		pipeline.Translate{Models: s.models, Cache: s.cache},
	)

	if err := p.Run(ctx, job); err != nil {
		return nil, err
	}

	rows, err := s.progress.ListByUser(ctx, userID, job.SourceLang)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary progress: %w", err)
	}
	confidence := make(map[string]int, len(rows))
	for _, row := range rows {
		confidence[row.Lemma] = row.Confidence
	}

	coverage := vocab.ComputeCoverage(job.ContentLemmas(), confidence)

	lemmas := make([]string, 0, len(job.Items))
	for _, item := range job.Items {
		lemmas = append(lemmas, item.Lemma)
	}
	created, err := s.progress.EnsureExists(ctx, userID, lemmas, job.SourceLang)
	if err != nil {
		return nil, fmt.Errorf("seed vocabulary progress: %w", err)
	}

	slog.Info("Subtitle processing finished",
		"source", job.Source,
		"cues", len(job.Cues),
		"items", len(job.Items),
		"new_lemmas", created,
		"known_pct", coverage.KnownPct,
	)

	return &Report{
		Source:        job.Source,
		CueCount:      len(job.Cues),
		WordCount:     len(subtitle.TokenizeCues(job.Cues)),
		Items:         job.Items,
		Coverage:      coverage,
		NewLemmas:     created,
		StepDurations: job.StepDurations,
	}, nil
}

// ReviewWord applies one review result: confidence moves one step up or down.
// Reviewing a word the user has no row for starts from confidence 0.
func (s *Service) ReviewWord(ctx context.Context, userID uuid.UUID, lemma, language string, correct bool) (*domain.Progress, error) {
	progress, err := s.progress.Get(ctx, userID, lemma, language)
	if errors.Is(err, domain.ErrProgressNotFound) {
		progress = &domain.Progress{UserID: userID, Lemma: lemma, Language: language}
	} else if err != nil {
		return nil, err
	}

	progress.Confidence = vocab.ReviewStep(progress.Confidence, correct)
	progress.TimesSeen++
	if correct {
		progress.TimesCorrect++
	}
	progress.LastSeenAt = s.clock.Now()

	if err := s.progress.Upsert(ctx, progress); err != nil {
		return nil, err
	}

	result := "incorrect"
	if correct {
		result = "correct"
	}
	metrics.VocabularyReviewsTotal.WithLabelValues(result).Inc()

	return progress, nil
}

// SetConfidence pins a word to an explicit confidence level, clamped to the
// valid range.
func (s *Service) SetConfidence(ctx context.Context, userID uuid.UUID, lemma, language string, confidence int) (*domain.Progress, error) {
	progress, err := s.progress.Get(ctx, userID, lemma, language)
	if errors.Is(err, domain.ErrProgressNotFound) {
		progress = &domain.Progress{UserID: userID, Lemma: lemma, Language: language}
	} else if err != nil {
		return nil, err
	}

	progress.Confidence = vocab.ClampConfidence(confidence)
	progress.LastSeenAt = s.clock.Now()

	if err := s.progress.Upsert(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// VocabularyStats returns the aggregate counts for one user and language.
func (s *Service) VocabularyStats(ctx context.Context, userID uuid.UUID, language string) (*domain.VocabularyStats, error) {
	return s.progress.Stats(ctx, userID, language)
}

// VocabularyList returns all progress rows for one user and language.
func (s *Service) VocabularyList(ctx context.Context, userID uuid.UUID, language string) ([]domain.Progress, error) {
	return s.progress.ListByUser(ctx, userID, language)
}

// ModelUsage reports the current model manager state.
func (s *Service) ModelUsage() modelmanager.Stats {
	return s.models.Stats()
}

// UnloadModel tears down one model class, draining within ctx.
func (s *Service) UnloadModel(ctx context.Context, class modelmanager.Class) error {
	return s.models.Unload(ctx, class)
}
