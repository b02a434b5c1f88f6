package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
)

func (r *Postgres) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	query := r.psql.Insert("lessons").
		Columns("slug", "title", "kind", "created_at").
		Values(lesson.Slug, lesson.Title, lesson.Kind, lesson.CreatedAt).
		Suffix("RETURNING id")

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (slug: %s): %w", lesson.Slug, err)
	}

	if err := r.QueryRowxContext(ctx, sql, args...).Scan(&lesson.ID); err != nil {
		return fmt.Errorf("create lesson (slug: %s): %w", lesson.Slug, err)
	}
	return nil
}

func (r *Postgres) GetLesson(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	query := `
		SELECT id, slug, title, kind, created_at
		FROM lessons
		WHERE id = $1
	`

	var lesson models.Lesson
	err := r.GetContext(ctx, &lesson, query, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson (id: %d): %w", lessonID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson (id: %d): %w", lessonID, err)
	}

	return &lesson, nil
}

func (r *Postgres) GetLessonBySlug(ctx context.Context, slug string) (*models.Lesson, error) {
	query := `
		SELECT id, slug, title, kind, created_at
		FROM lessons
		WHERE slug = $1
	`

	var lesson models.Lesson
	err := r.GetContext(ctx, &lesson, query, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson (slug: %s): %w", slug, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson (slug: %s): %w", slug, err)
	}

	return &lesson, nil
}

// DeleteLesson removes the lesson; sentences and progress go with it via
// ON DELETE CASCADE.
func (r *Postgres) DeleteLesson(ctx context.Context, lessonID int64) error {
	query := r.psql.Delete("lessons").Where("id = ?", lessonID)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (lesson_id: %d): %w", lessonID, err)
	}

	if _, err := r.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lesson (id: %d): %w", lessonID, err)
	}
	return nil
}
