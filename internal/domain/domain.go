// Package domain holds the core types and interfaces of the language
// processing backend. It has no dependencies on adapters.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// Progress is one user's knowledge of a single lemma.
type Progress struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Lemma        string    `db:"lemma" json:"lemma"`
	Language     string    `db:"language" json:"language"`
	Confidence   int       `db:"confidence" json:"confidence"` // clamped to [0, 5]
	TimesSeen    int       `db:"times_seen" json:"times_seen"`
	TimesCorrect int       `db:"times_correct" json:"times_correct"`
	LastSeenAt   time.Time `db:"last_seen_at" json:"last_seen_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// VocabularyStats aggregates a user's progress rows into counts and
// percentages. Known means confidence >= 4, learning 1..3, new 0.
type VocabularyStats struct {
	TotalWords    int     `json:"total_words"`
	KnownWords    int     `json:"known_words"`
	LearningWords int     `json:"learning_words"`
	NewWords      int     `json:"new_words"`
	KnownPct      float64 `json:"known_pct"`
}

// VocabularyItem is a candidate word produced by the processing pipeline.
type VocabularyItem struct {
	Lemma        string `json:"lemma"`
	Surface      string `json:"surface"`
	PartOfSpeech string `json:"part_of_speech,omitempty"`
	Frequency    int    `json:"frequency"`
	Translation  string `json:"translation,omitempty"`
}

// Segment is a piece of transcribed speech with timing.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Token is a single analysed word from the tagging model.
type Token struct {
	Surface      string `json:"surface"`
	Lemma        string `json:"lemma"`
	PartOfSpeech string `json:"part_of_speech"`
}

// --- Model capabilities (opaque external ML) ---

// Transcriber produces timed text segments from an audio source.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) ([]Segment, error)
}

// Translator translates a single text between languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Lemmatizer analyses text into lemmatized, POS-tagged tokens.
type Lemmatizer interface {
	Lemmatize(ctx context.Context, text, language string) ([]Token, error)
}

// --- Persistence and cache interfaces ---

// ProgressRepository abstracts vocabulary progress persistence.
type ProgressRepository interface {
	Get(ctx context.Context, userID uuid.UUID, lemma, language string) (*Progress, error)
	ListByUser(ctx context.Context, userID uuid.UUID, language string) ([]Progress, error)
	Upsert(ctx context.Context, p *Progress) error
	EnsureExists(ctx context.Context, userID uuid.UUID, lemmas []string, language string) (int, error)
	Stats(ctx context.Context, userID uuid.UUID, language string) (*VocabularyStats, error)
}

// TranslationCache memoizes word translations across pipeline runs.
type TranslationCache interface {
	Get(ctx context.Context, text, source, target string) (string, bool, error)
	Set(ctx context.Context, text, source, target, translation string) error
}
