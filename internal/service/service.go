package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jlightning/polyglot-io-sub000/internal/caption"
	"github.com/jlightning/polyglot-io-sub000/internal/models"
	"github.com/jlightning/polyglot-io-sub000/internal/reader"
	"github.com/jlightning/polyglot-io-sub000/pkg/timeutil"
)

type Service struct {
	repo models.Repository
}

func NewService(repo models.Repository) *Service {
	return &Service{repo: repo}
}

// IngestSubtitleLesson creates a lesson from raw subtitle text: parse,
// normalize (sort + merge adjacent duplicates, exactly once per ingestion),
// then bulk-insert the timed sentences in ordinal order.
func (s *Service) IngestSubtitleLesson(ctx context.Context, title, raw string, sourceFile *string) (*models.Lesson, error) {
	captions := caption.Normalize(caption.Parse(raw))

	sentences := make([]*models.Sentence, 0, len(captions))
	for i, c := range captions {
		start := timeutil.MsToSec(c.StartMs)
		end := timeutil.MsToSec(c.EndMs)
		sentences = append(sentences, &models.Sentence{
			Ordinal:      i,
			OriginalText: c.Text,
			SplitWords:   splitWords(c.Text),
			SourceFile:   sourceFile,
			StartTimeSec: &start,
			EndTimeSec:   &end,
		})
	}

	return s.createLesson(ctx, title, models.LessonKindSubtitle, sentences)
}

// IngestTextLesson creates a paged lesson from plain text. Sentences carry
// no timing; they are addressed by page only.
func (s *Service) IngestTextLesson(ctx context.Context, title, text string) (*models.Lesson, error) {
	parts := splitPlainText(text)

	sentences := make([]*models.Sentence, 0, len(parts))
	for i, part := range parts {
		sentences = append(sentences, &models.Sentence{
			Ordinal:      i,
			OriginalText: part,
			SplitWords:   splitWords(part),
		})
	}

	return s.createLesson(ctx, title, models.LessonKindText, sentences)
}

// IngestMangaLesson creates a lesson from per-page OCR text. Sentences are
// untimed and keep the source file of the page they were extracted from.
func (s *Service) IngestMangaLesson(ctx context.Context, title string, pages []models.MangaPage) (*models.Lesson, error) {
	var sentences []*models.Sentence
	ordinal := 0
	for _, p := range pages {
		sourceFile := p.SourceFile
		for _, part := range splitPlainText(p.Text) {
			sentences = append(sentences, &models.Sentence{
				Ordinal:      ordinal,
				OriginalText: part,
				SplitWords:   splitWords(part),
				SourceFile:   &sourceFile,
			})
			ordinal++
		}
	}

	return s.createLesson(ctx, title, models.LessonKindManga, sentences)
}

func (s *Service) createLesson(ctx context.Context, title string, kind models.LessonKind, sentences []*models.Sentence) (*models.Lesson, error) {
	lesson := &models.Lesson{
		Slug:      uuid.NewString(),
		Title:     title,
		Kind:      kind,
		CreatedAt: timeutil.NowUTC(),
	}

	err := s.repo.RunInTx(ctx, func(tx models.Repository) error {
		if err := tx.CreateLesson(ctx, lesson); err != nil {
			return err
		}
		return tx.InsertSentences(ctx, lesson.ID, sentences)
	})
	if err != nil {
		return nil, fmt.Errorf("ingest lesson (title: %s): %w", title, err)
	}

	if len(sentences) == 0 {
		zap.S().Warn("lesson ingested with no sentences", zap.String("slug", lesson.Slug), zap.String("title", title))
	} else {
		zap.S().Info("lesson ingested",
			zap.String("slug", lesson.Slug), zap.Int("sentences", len(sentences)))
	}

	return lesson, nil
}

func (s *Service) GetLesson(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	return s.repo.GetLesson(ctx, lessonID)
}

func (s *Service) DeleteLesson(ctx context.Context, lessonID int64) error {
	return s.repo.DeleteLesson(ctx, lessonID)
}

func (s *Service) FetchSentencePage(ctx context.Context, lessonID int64, page, pageSize int, sourceFile *string) ([]*models.Sentence, error) {
	return s.repo.FetchSentencePage(ctx, lessonID, page, pageSize, sourceFile)
}

func (s *Service) CountSentences(ctx context.Context, lessonID int64) (int, error) {
	return s.repo.CountSentences(ctx, lessonID)
}

// ResumeTarget computes where to place the learner when a lesson opens: the
// stored read-till sentence mapped to its page and start time. Without a
// progress record the target is page 1, time 0, and no record is created
// until the first write. A zero-sentence lesson is an error, never page 1.
func (s *Service) ResumeTarget(ctx context.Context, userID, lessonID int64, pageSize int) (*models.ResumeTarget, error) {
	if pageSize <= 0 {
		pageSize = reader.DefaultPageSize
	}

	total, err := s.repo.CountSentences(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("resume target (lesson_id: %d): %w", lessonID, models.ErrEmptyLesson)
	}

	progress, err := s.repo.GetProgress(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return &models.ResumeTarget{Page: 1}, nil
	}

	ordinal, err := s.repo.SentenceOrdinal(ctx, lessonID, progress.ReadTillSentenceID)
	if err != nil {
		return nil, err
	}

	target := &models.ResumeTarget{
		Page:       reader.PageForOrdinal(ordinal, pageSize),
		SentenceID: progress.ReadTillSentenceID,
	}

	sentence, err := s.repo.GetSentence(ctx, progress.ReadTillSentenceID)
	if err != nil {
		return nil, err
	}
	if sentence.StartTimeSec != nil {
		target.TimeSec = *sentence.StartTimeSec
	}

	return target, nil
}

// VisitPage records a page visit on a paged lesson: read-till becomes the
// first sentence of the page. Reaching the last page does not finish the
// lesson; that takes an explicit FinishLesson call.
func (s *Service) VisitPage(ctx context.Context, userID, lessonID int64, page, pageSize int) (*models.LessonProgress, error) {
	if pageSize <= 0 {
		pageSize = reader.DefaultPageSize
	}

	total, err := s.repo.CountSentences(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("visit page (lesson_id: %d): %w", lessonID, models.ErrEmptyLesson)
	}
	if page < 1 || page > reader.PageCount(total, pageSize) {
		return nil, fmt.Errorf("visit page (lesson_id: %d, page: %d of %d): %w",
			lessonID, page, reader.PageCount(total, pageSize), models.ErrNotFound)
	}

	sentences, err := s.repo.FetchSentencePage(ctx, lessonID, page, pageSize, nil)
	if err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("visit page (lesson_id: %d, page: %d): %w", lessonID, page, models.ErrNotFound)
	}

	return s.repo.UpsertProgress(ctx, userID, lessonID, sentences[0].ID, nil)
}

// AdvanceProgress is the video-path write: read-till becomes sentenceID. The
// repository clamps regressions, so late debounced writes are harmless.
func (s *Service) AdvanceProgress(ctx context.Context, userID, lessonID, sentenceID int64, finish bool) (*models.LessonProgress, error) {
	var status *models.ProgressStatus
	if finish {
		finished := models.ProgressFinished
		status = &finished
	}

	if sentenceID == 0 {
		resolved, err := s.currentOrFirstSentence(ctx, userID, lessonID)
		if err != nil {
			return nil, err
		}
		sentenceID = resolved
	}

	return s.repo.UpsertProgress(ctx, userID, lessonID, sentenceID, status)
}

// FinishLesson marks the lesson finished without moving read-till.
func (s *Service) FinishLesson(ctx context.Context, userID, lessonID int64) (*models.LessonProgress, error) {
	return s.AdvanceProgress(ctx, userID, lessonID, 0, true)
}

func (s *Service) GetProgress(ctx context.Context, userID, lessonID int64) (*models.LessonProgress, error) {
	return s.repo.GetProgress(ctx, userID, lessonID)
}

// ResetProgress deletes the (user, lesson) record, the one sanctioned way
// progress moves backward.
func (s *Service) ResetProgress(ctx context.Context, userID, lessonID int64) error {
	return s.repo.DeleteProgress(ctx, userID, lessonID)
}

func (s *Service) RetimeSentence(ctx context.Context, sentenceID int64, offsetSec float64, cascadeToSubsequent bool) error {
	return s.repo.RetimeSentence(ctx, sentenceID, offsetSec, cascadeToSubsequent)
}

// OpenView builds the per-session reader core for one lesson view, wiring
// its page fetches and debounced progress writes to the store.
func (s *Service) OpenView(ctx context.Context, userID, lessonID int64, cfg reader.SessionConfig) (*reader.Session, error) {
	if cfg.PageSize <= 0 {
		cfg.PageSize = reader.DefaultPageSize
	}

	total, err := s.repo.CountSentences(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("open view (lesson_id: %d): %w", lessonID, models.ErrEmptyLesson)
	}

	fetch := func(ctx context.Context, page int) ([]models.Sentence, error) {
		rows, err := s.repo.FetchSentencePage(ctx, lessonID, page, cfg.PageSize, nil)
		if err != nil {
			return nil, err
		}
		out := make([]models.Sentence, 0, len(rows))
		for _, row := range rows {
			out = append(out, *row)
		}
		return out, nil
	}

	write := func(ctx context.Context, sentenceID int64, finish bool) error {
		_, err := s.AdvanceProgress(ctx, userID, lessonID, sentenceID, finish)
		return err
	}

	return reader.NewSession(total, cfg, fetch, write), nil
}

func (s *Service) currentOrFirstSentence(ctx context.Context, userID, lessonID int64) (int64, error) {
	progress, err := s.repo.GetProgress(ctx, userID, lessonID)
	if err != nil {
		return 0, err
	}
	if progress != nil {
		return progress.ReadTillSentenceID, nil
	}

	first, err := s.repo.FetchSentencePage(ctx, lessonID, 1, 1, nil)
	if err != nil {
		return 0, err
	}
	if len(first) == 0 {
		return 0, fmt.Errorf("lesson (id: %d): %w", lessonID, models.ErrEmptyLesson)
	}
	return first[0].ID, nil
}

func splitWords(text string) []string {
	return strings.Fields(text)
}

// splitPlainText cuts text into sentences on newlines and terminal
// punctuation, keeping the terminator with its sentence.
func splitPlainText(text string) []string {
	var out []string
	var b strings.Builder

	flush := func() {
		if part := strings.TrimSpace(b.String()); part != "" {
			out = append(out, part)
		}
		b.Reset()
	}

	for _, r := range text {
		switch r {
		case '\n':
			flush()
		case '.', '!', '?', '。', '！', '？':
			b.WriteRune(r)
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()

	return out
}
