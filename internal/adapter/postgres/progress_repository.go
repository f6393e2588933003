package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/vocab"
)

// progressColumns must match the fields of domain.Progress.
const progressColumns = `user_id, lemma, language, confidence, times_seen, times_correct, last_seen_at, created_at, updated_at`

// ProgressRepo implements domain.ProgressRepository backed by PostgreSQL.
type ProgressRepo struct {
	pool *pgxpool.Pool
}

var _ domain.ProgressRepository = (*ProgressRepo)(nil)

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

func (r *ProgressRepo) Get(ctx context.Context, userID uuid.UUID, lemma, language string) (*domain.Progress, error) {
	query := `SELECT ` + progressColumns + `
	          FROM vocabulary_progress
	          WHERE user_id = $1 AND lemma = $2 AND language = $3`

	rows, err := r.pool.Query(ctx, query, userID, lemma, language)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}

	progress, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domain.Progress])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan progress: %w", err)
	}
	return &progress, nil
}

func (r *ProgressRepo) ListByUser(ctx context.Context, userID uuid.UUID, language string) ([]domain.Progress, error) {
	query := `SELECT ` + progressColumns + `
	          FROM vocabulary_progress
	          WHERE user_id = $1 AND language = $2
	          ORDER BY lemma`

	rows, err := r.pool.Query(ctx, query, userID, language)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	progress, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Progress])
	if err != nil {
		return nil, fmt.Errorf("failed to scan progress rows: %w", err)
	}
	return progress, nil
}

// Upsert writes one progress row, clamping confidence into the valid range.
func (r *ProgressRepo) Upsert(ctx context.Context, p *domain.Progress) error {
	query := `INSERT INTO vocabulary_progress (user_id, lemma, language, confidence, times_seen, times_correct, last_seen_at)
	          VALUES ($1, $2, $3, $4, $5, $6, now())
	          ON CONFLICT (user_id, lemma, language) DO UPDATE SET
	              confidence    = EXCLUDED.confidence,
	              times_seen    = EXCLUDED.times_seen,
	              times_correct = EXCLUDED.times_correct,
	              last_seen_at  = now(),
	              updated_at    = now()`

	confidence := vocab.ClampConfidence(p.Confidence)
	_, err := r.pool.Exec(ctx, query, p.UserID, p.Lemma, p.Language, confidence, p.TimesSeen, p.TimesCorrect)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	return nil
}

// EnsureExists inserts confidence-0 rows for any lemma the user has no entry
// for yet. Returns the number of newly created rows.
func (r *ProgressRepo) EnsureExists(ctx context.Context, userID uuid.UUID, lemmas []string, language string) (int, error) {
	if len(lemmas) == 0 {
		return 0, nil
	}

	query := `INSERT INTO vocabulary_progress (user_id, lemma, language)
	          SELECT $1, unnest($2::text[]), $3
	          ON CONFLICT (user_id, lemma, language) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, userID, lemmas, language)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure progress rows: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Stats aggregates a user's rows in SQL; the known percentage is derived in Go.
func (r *ProgressRepo) Stats(ctx context.Context, userID uuid.UUID, language string) (*domain.VocabularyStats, error) {
	query := `SELECT
	              COUNT(*),
	              COUNT(*) FILTER (WHERE confidence >= $3),
	              COUNT(*) FILTER (WHERE confidence > 0 AND confidence < $3),
	              COUNT(*) FILTER (WHERE confidence = 0)
	          FROM vocabulary_progress
	          WHERE user_id = $1 AND language = $2`

	var stats domain.VocabularyStats
	err := r.pool.QueryRow(ctx, query, userID, language, vocab.KnownThreshold).
		Scan(&stats.TotalWords, &stats.KnownWords, &stats.LearningWords, &stats.NewWords)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	if stats.TotalWords > 0 {
		stats.KnownPct = float64(stats.KnownWords) / float64(stats.TotalWords) * 100
	}
	return &stats, nil
}
