package models

import "time"

// Caption is a raw timed block decoded from a subtitle file. Captions exist
// only between parsing and normalization; they are never persisted.
type Caption struct {
	Text    string
	StartMs int64
	EndMs   int64
}

type LessonKind string

const (
	LessonKindText     LessonKind = "text"
	LessonKindSubtitle LessonKind = "subtitle"
	LessonKindManga    LessonKind = "manga"
)

type Lesson struct {
	ID        int64      `db:"id"`
	Slug      string     `db:"slug"`
	Title     string     `db:"title"`
	Kind      LessonKind `db:"kind"`
	CreatedAt time.Time  `db:"created_at"`
}

// Sentence is an ordinally positioned unit of lesson content. Ordinal is
// assigned at ingestion and never changes; timing is optional and only moves
// via an explicit retime.
type Sentence struct {
	ID           int64    `db:"id"`
	LessonID     int64    `db:"lesson_id"`
	Ordinal      int      `db:"ordinal"`
	OriginalText string   `db:"original_text"`
	SplitWords   []string `db:"-"`
	SourceFile   *string  `db:"source_file"`
	StartTimeSec *float64 `db:"start_time_sec"`
	EndTimeSec   *float64 `db:"end_time_sec"`
}

// Timed reports whether the sentence can be resolved against a playback
// cursor.
func (s Sentence) Timed() bool {
	return s.StartTimeSec != nil && s.EndTimeSec != nil
}

type ProgressStatus string

const (
	ProgressReading  ProgressStatus = "reading"
	ProgressFinished ProgressStatus = "finished"
)

// LessonProgress is the one record per (user, lesson) pair tracking how far
// the learner got. ReadTillSentenceID always references a sentence of
// LessonID; it never moves backward except through an explicit reset.
type LessonProgress struct {
	UserID             int64          `db:"user_id"`
	LessonID           int64          `db:"lesson_id"`
	ReadTillSentenceID int64          `db:"read_till_sentence_id"`
	Status             ProgressStatus `db:"status"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// MangaPage is the OCR-extracted text of one manga page image, named by its
// source file so reads can be filtered back to the page they came from.
type MangaPage struct {
	SourceFile string `json:"source_file"`
	Text       string `json:"text"`
}

// PageWindow is the half-open ordinal range [StartOrdinal, EndOrdinal)
// covered by a 1-indexed page. Derived, never stored.
type PageWindow struct {
	PageNumber   int
	StartOrdinal int
	EndOrdinal   int
}

// ResumeTarget is where a learner should be placed when reopening a lesson:
// the page for paged lessons, the timestamp for video-backed ones.
type ResumeTarget struct {
	Page       int     `json:"page"`
	SentenceID int64   `json:"sentence_id"`
	TimeSec    float64 `json:"time_sec"`
}
