package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
	"github.com/jlightning/polyglot-io-sub000/pkg/timeutil"
)

func (r *Postgres) GetProgress(ctx context.Context, userID, lessonID int64) (*models.LessonProgress, error) {
	query := `
		SELECT user_id, lesson_id, read_till_sentence_id, status, updated_at
		FROM lesson_progress
		WHERE user_id = $1 AND lesson_id = $2
	`

	var progress models.LessonProgress
	err := r.GetContext(ctx, &progress, query, userID, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		// no record yet: created lazily on first write
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress (user_id: %d, lesson_id: %d): %w", userID, lessonID, err)
	}

	return &progress, nil
}

// UpsertProgress writes the absolute read-till position for (user, lesson),
// creating the record on first write. The sentence must belong to the
// lesson. Monotonic acceptance: because sentence ids ascend with ordinal
// within a lesson, a write carrying a smaller id than the stored one is
// clamped to the stored value, so a stale in-flight write that lands late
// can never regress progress.
func (r *Postgres) UpsertProgress(ctx context.Context, userID, lessonID, readTillSentenceID int64, status *models.ProgressStatus) (*models.LessonProgress, error) {
	if _, err := r.SentenceOrdinal(ctx, lessonID, readTillSentenceID); err != nil {
		return nil, err
	}

	newStatus := models.ProgressReading
	if status != nil {
		newStatus = *status
	}

	query := r.psql.Insert("lesson_progress").
		Columns("user_id", "lesson_id", "read_till_sentence_id", "status", "updated_at").
		Values(userID, lessonID, readTillSentenceID, newStatus, timeutil.NowUTC()).
		Suffix(`ON CONFLICT (user_id, lesson_id) DO UPDATE
			SET read_till_sentence_id = GREATEST(lesson_progress.read_till_sentence_id, EXCLUDED.read_till_sentence_id),
			    status = CASE WHEN lesson_progress.status = 'finished' AND EXCLUDED.status = 'reading'
			                  THEN lesson_progress.status ELSE EXCLUDED.status END,
			    updated_at = EXCLUDED.updated_at
			RETURNING user_id, lesson_id, read_till_sentence_id, status, updated_at`)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SQL query (user_id: %d, lesson_id: %d): %w", userID, lessonID, err)
	}

	var progress models.LessonProgress
	if err := r.QueryRowxContext(ctx, sqlStr, args...).StructScan(&progress); err != nil {
		return nil, fmt.Errorf("upsert progress (user_id: %d, lesson_id: %d, sentence_id: %d): %w",
			userID, lessonID, readTillSentenceID, err)
	}

	return &progress, nil
}

// DeleteProgress is the explicit reset: the only way progress moves
// backward.
func (r *Postgres) DeleteProgress(ctx context.Context, userID, lessonID int64) error {
	query := r.psql.Delete("lesson_progress").
		Where("user_id = ? AND lesson_id = ?", userID, lessonID)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (user_id: %d, lesson_id: %d): %w", userID, lessonID, err)
	}

	if _, err := r.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("delete progress (user_id: %d, lesson_id: %d): %w", userID, lessonID, err)
	}

	return nil
}
