// Package handler exposes the reader operations over a JSON HTTP API. The
// API trusts the user_id the client sends; authentication lives in front of
// this service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
	"github.com/jlightning/polyglot-io-sub000/internal/reader"
)

type Service interface {
	IngestSubtitleLesson(ctx context.Context, title, raw string, sourceFile *string) (*models.Lesson, error)
	IngestTextLesson(ctx context.Context, title, text string) (*models.Lesson, error)
	IngestMangaLesson(ctx context.Context, title string, pages []models.MangaPage) (*models.Lesson, error)
	GetLesson(ctx context.Context, lessonID int64) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, lessonID int64) error

	FetchSentencePage(ctx context.Context, lessonID int64, page, pageSize int, sourceFile *string) ([]*models.Sentence, error)
	CountSentences(ctx context.Context, lessonID int64) (int, error)
	RetimeSentence(ctx context.Context, sentenceID int64, offsetSec float64, cascadeToSubsequent bool) error

	ResumeTarget(ctx context.Context, userID, lessonID int64, pageSize int) (*models.ResumeTarget, error)
	VisitPage(ctx context.Context, userID, lessonID int64, page, pageSize int) (*models.LessonProgress, error)
	AdvanceProgress(ctx context.Context, userID, lessonID, sentenceID int64, finish bool) (*models.LessonProgress, error)
	FinishLesson(ctx context.Context, userID, lessonID int64) (*models.LessonProgress, error)
	GetProgress(ctx context.Context, userID, lessonID int64) (*models.LessonProgress, error)
	ResetProgress(ctx context.Context, userID, lessonID int64) error
}

type Handler struct {
	service Service
}

func NewRouter(service Service) *chi.Mux {
	h := &Handler{service: service}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Post("/lessons", h.CreateLesson)
		r.Get("/lessons/{lessonID}", h.GetLesson)
		r.Delete("/lessons/{lessonID}", h.DeleteLesson)

		r.Get("/lessons/{lessonID}/sentences", h.GetSentencePage)
		r.Get("/lessons/{lessonID}/resume", h.GetResumeTarget)

		r.Get("/lessons/{lessonID}/progress", h.GetProgress)
		r.Put("/lessons/{lessonID}/progress", h.PutProgress)
		r.Delete("/lessons/{lessonID}/progress", h.ResetProgress)
		r.Post("/lessons/{lessonID}/finish", h.FinishLesson)

		r.Post("/sentences/{sentenceID}/retime", h.RetimeSentence)
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type createLessonRequest struct {
	Title      string             `json:"title"`
	Kind       string             `json:"kind"`
	Content    string             `json:"content"`
	SourceFile *string            `json:"source_file,omitempty"`
	Pages      []models.MangaPage `json:"pages,omitempty"`
}

func (h *Handler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}

	var (
		lesson *models.Lesson
		err    error
	)
	switch models.LessonKind(req.Kind) {
	case models.LessonKindSubtitle:
		lesson, err = h.service.IngestSubtitleLesson(r.Context(), req.Title, req.Content, req.SourceFile)
	case models.LessonKindText:
		lesson, err = h.service.IngestTextLesson(r.Context(), req.Title, req.Content)
	case models.LessonKindManga:
		lesson, err = h.service.IngestMangaLesson(r.Context(), req.Title, req.Pages)
	default:
		jsonError(w, "kind must be one of: text, subtitle, manga", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, lesson)
}

func (h *Handler) GetLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lessonID")
	if !ok {
		return
	}

	lesson, err := h.service.GetLesson(r.Context(), lessonID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *Handler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lessonID")
	if !ok {
		return
	}

	if err := h.service.DeleteLesson(r.Context(), lessonID); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetSentencePage(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lessonID")
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", reader.DefaultPageSize)
	if page < 1 || pageSize < 1 {
		jsonError(w, "page and page_size must be positive", http.StatusBadRequest)
		return
	}

	var sourceFile *string
	if sf := r.URL.Query().Get("source_file"); sf != "" {
		sourceFile = &sf
	}

	sentences, err := h.service.FetchSentencePage(r.Context(), lessonID, page, pageSize, sourceFile)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	total, err := h.service.CountSentences(r.Context(), lessonID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sentences":   sentenceViews(sentences),
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": reader.PageCount(total, pageSize),
	})
}

func (h *Handler) GetResumeTarget(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lessonID")
	if !ok {
		return
	}
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}

	target, err := h.service.ResumeTarget(r.Context(), userID, lessonID, queryInt(r, "page_size", reader.DefaultPageSize))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

type putProgressRequest struct {
	UserID     int64 `json:"user_id"`
	Page       int   `json:"page,omitempty"`
	PageSize   int   `json:"page_size,omitempty"`
	SentenceID int64 `json:"sentence_id,omitempty"`
}

// PutProgress advances progress either by page (paged lessons) or by
// sentence id (video lessons). Regressions are clamped by the store.
func (h *Handler) PutProgress(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lessonID")
	if !ok {
		return
	}

	var req putProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == 0 {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	var (
		progress *models.LessonProgress
		err      error
	)
	switch {
	case req.SentenceID != 0:
		progress, err = h.service.AdvanceProgress(r.Context(), req.UserID, lessonID, req.SentenceID, false)
	case req.Page != 0:
		progress, err = h.service.VisitPage(r.Context(), req.UserID, lessonID, req.Page, req.PageSize)
	default:
		jsonError(w, "either page or sentence_id is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lessonID")
	if !ok {
		return
	}
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}

	progress, err := h.service.GetProgress(r.Context(), userID, lessonID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if progress == nil {
		jsonError(w, "no progress for this lesson", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lessonID")
	if !ok {
		return
	}
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.ResetProgress(r.Context(), userID, lessonID); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type finishRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *Handler) FinishLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "lessonID")
	if !ok {
		return
	}

	var req finishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	progress, err := h.service.FinishLesson(r.Context(), req.UserID, lessonID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type retimeRequest struct {
	OffsetSec           float64 `json:"offset_sec"`
	CascadeToSubsequent bool    `json:"cascade_to_subsequent"`
}

func (h *Handler) RetimeSentence(w http.ResponseWriter, r *http.Request) {
	sentenceID, ok := pathID(w, r, "sentenceID")
	if !ok {
		return
	}

	var req retimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.RetimeSentence(r.Context(), sentenceID, req.OffsetSec, req.CascadeToSubsequent); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, models.ErrSentenceNotInLesson):
		jsonError(w, "progress references a sentence outside the lesson", http.StatusConflict)
	case errors.Is(err, models.ErrEmptyLesson):
		jsonError(w, "lesson has no sentences", http.StatusUnprocessableEntity)
	default:
		zap.S().Error("request failed", zap.Error(err))
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
