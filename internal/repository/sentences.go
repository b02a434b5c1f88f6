package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
)

type sentenceRow struct {
	ID           int64    `db:"id"`
	LessonID     int64    `db:"lesson_id"`
	Ordinal      int      `db:"ordinal"`
	OriginalText string   `db:"original_text"`
	SplitWords   []byte   `db:"split_words"`
	SourceFile   *string  `db:"source_file"`
	StartTimeSec *float64 `db:"start_time_sec"`
	EndTimeSec   *float64 `db:"end_time_sec"`
}

func (row sentenceRow) toModel() (*models.Sentence, error) {
	s := &models.Sentence{
		ID:           row.ID,
		LessonID:     row.LessonID,
		Ordinal:      row.Ordinal,
		OriginalText: row.OriginalText,
		SourceFile:   row.SourceFile,
		StartTimeSec: row.StartTimeSec,
		EndTimeSec:   row.EndTimeSec,
	}
	if len(row.SplitWords) > 0 {
		if err := json.Unmarshal(row.SplitWords, &s.SplitWords); err != nil {
			return nil, fmt.Errorf("decode split words (sentence_id: %d): %w", row.ID, err)
		}
	}
	return s, nil
}

// InsertSentences bulk-inserts in ordinal order and fills in the assigned
// ids, which ascend with ordinal for a single statement.
func (r *Postgres) InsertSentences(ctx context.Context, lessonID int64, sentences []*models.Sentence) error {
	if len(sentences) == 0 {
		return nil
	}

	query := r.psql.Insert("sentences").
		Columns("lesson_id", "ordinal", "original_text", "split_words", "source_file", "start_time_sec", "end_time_sec")

	for _, s := range sentences {
		words, err := json.Marshal(s.SplitWords)
		if err != nil {
			return fmt.Errorf("encode split words (ordinal: %d): %w", s.Ordinal, err)
		}
		query = query.Values(lessonID, s.Ordinal, s.OriginalText, words, s.SourceFile, s.StartTimeSec, s.EndTimeSec)
	}
	query = query.Suffix("RETURNING id")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (lesson_id: %d): %w", lessonID, err)
	}

	rows, err := r.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("insert sentences (lesson_id: %d, count: %d): %w", lessonID, len(sentences), err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(sentences) {
			break
		}
		if err := rows.Scan(&sentences[i].ID); err != nil {
			return fmt.Errorf("scan inserted sentence id (lesson_id: %d): %w", lessonID, err)
		}
		sentences[i].LessonID = lessonID
		i++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("insert sentences (lesson_id: %d): %w", lessonID, err)
	}
	if i != len(sentences) {
		return fmt.Errorf("insert sentences (lesson_id: %d): got %d ids for %d rows", lessonID, i, len(sentences))
	}

	return nil
}

// FetchSentencePage returns one 1-indexed page in ordinal order. sourceFile,
// when set, restricts to sentences extracted from that file (one manga page,
// one subtitle track).
func (r *Postgres) FetchSentencePage(ctx context.Context, lessonID int64, page, pageSize int, sourceFile *string) ([]*models.Sentence, error) {
	query := r.psql.Select("id", "lesson_id", "ordinal", "original_text", "split_words", "source_file", "start_time_sec", "end_time_sec").
		From("sentences").
		Where("lesson_id = ?", lessonID).
		OrderBy("ordinal ASC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))
	if sourceFile != nil {
		query = query.Where("source_file = ?", *sourceFile)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SQL query (lesson_id: %d, page: %d): %w", lessonID, page, err)
	}

	var rows []sentenceRow
	if err := r.SelectContext(ctx, &rows, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("fetch sentence page (lesson_id: %d, page: %d): %w", lessonID, page, err)
	}

	sentences := make([]*models.Sentence, 0, len(rows))
	for _, row := range rows {
		s, err := row.toModel()
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, s)
	}

	return sentences, nil
}

func (r *Postgres) CountSentences(ctx context.Context, lessonID int64) (int, error) {
	query := r.psql.Select("COUNT(*)").From("sentences").Where("lesson_id = ?", lessonID)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build SQL query (lesson_id: %d): %w", lessonID, err)
	}

	var count int
	if err := r.QueryRowxContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sentences (lesson_id: %d): %w", lessonID, err)
	}
	return count, nil
}

func (r *Postgres) GetSentence(ctx context.Context, sentenceID int64) (*models.Sentence, error) {
	query := `
		SELECT id, lesson_id, ordinal, original_text, split_words, source_file, start_time_sec, end_time_sec
		FROM sentences
		WHERE id = $1
	`

	var row sentenceRow
	err := r.GetContext(ctx, &row, query, sentenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sentence (id: %d): %w", sentenceID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get sentence (id: %d): %w", sentenceID, err)
	}

	return row.toModel()
}

// SentenceOrdinal returns the 0-based ordinal of sentenceID within lessonID.
// A sentence outside the lesson is an integrity violation, not a default.
func (r *Postgres) SentenceOrdinal(ctx context.Context, lessonID, sentenceID int64) (int, error) {
	query := `
		SELECT ordinal
		FROM sentences
		WHERE id = $1 AND lesson_id = $2
	`

	var ordinal int
	err := r.GetContext(ctx, &ordinal, query, sentenceID, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sentence %d in lesson %d: %w", sentenceID, lessonID, models.ErrSentenceNotInLesson)
	}
	if err != nil {
		return 0, fmt.Errorf("sentence ordinal (lesson_id: %d, sentence_id: %d): %w", lessonID, sentenceID, err)
	}

	return ordinal, nil
}

// RetimeSentence shifts a sentence's start/end by offsetSec, optionally
// cascading the same shift to every later sentence of the lesson. Untimed
// sentences are left untouched.
func (r *Postgres) RetimeSentence(ctx context.Context, sentenceID int64, offsetSec float64, cascadeToSubsequent bool) error {
	return r.RunInTx(ctx, func(tx models.Repository) error {
		txPg := tx.(*Postgres)

		s, err := txPg.GetSentence(ctx, sentenceID)
		if err != nil {
			return err
		}

		shift := `
			UPDATE sentences
			SET start_time_sec = GREATEST(start_time_sec + $1, 0),
			    end_time_sec = GREATEST(end_time_sec + $1, 0)
			WHERE id = $2 AND start_time_sec IS NOT NULL
		`
		if _, err := txPg.ExecContext(ctx, shift, offsetSec, sentenceID); err != nil {
			return fmt.Errorf("retime sentence (id: %d, offset: %f): %w", sentenceID, offsetSec, err)
		}

		if !cascadeToSubsequent {
			return nil
		}

		cascade := `
			UPDATE sentences
			SET start_time_sec = GREATEST(start_time_sec + $1, 0),
			    end_time_sec = GREATEST(end_time_sec + $1, 0)
			WHERE lesson_id = $2 AND ordinal > $3 AND start_time_sec IS NOT NULL
		`
		if _, err := txPg.ExecContext(ctx, cascade, offsetSec, s.LessonID, s.Ordinal); err != nil {
			return fmt.Errorf("retime subsequent sentences (lesson_id: %d, after_ordinal: %d): %w", s.LessonID, s.Ordinal, err)
		}
		return nil
	})
}
