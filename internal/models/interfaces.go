package models

import "context"

type Repository interface {
	CreateLesson(ctx context.Context, lesson *Lesson) error
	GetLesson(ctx context.Context, lessonID int64) (*Lesson, error)
	GetLessonBySlug(ctx context.Context, slug string) (*Lesson, error)
	DeleteLesson(ctx context.Context, lessonID int64) error
	RunInTx(ctx context.Context, fn func(Repository) error) error

	InsertSentences(ctx context.Context, lessonID int64, sentences []*Sentence) error
	FetchSentencePage(ctx context.Context, lessonID int64, page, pageSize int, sourceFile *string) ([]*Sentence, error)
	CountSentences(ctx context.Context, lessonID int64) (int, error)
	GetSentence(ctx context.Context, sentenceID int64) (*Sentence, error)
	SentenceOrdinal(ctx context.Context, lessonID, sentenceID int64) (int, error)
	RetimeSentence(ctx context.Context, sentenceID int64, offsetSec float64, cascadeToSubsequent bool) error

	GetProgress(ctx context.Context, userID, lessonID int64) (*LessonProgress, error)
	UpsertProgress(ctx context.Context, userID, lessonID, readTillSentenceID int64, status *ProgressStatus) (*LessonProgress, error)
	DeleteProgress(ctx context.Context, userID, lessonID int64) error
}
