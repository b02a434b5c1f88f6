package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
)

// sentenceView is the wire shape of a sentence; pointer timing fields become
// nullable JSON numbers.
type sentenceView struct {
	ID           int64    `json:"id"`
	LessonID     int64    `json:"lesson_id"`
	Ordinal      int      `json:"ordinal"`
	OriginalText string   `json:"original_text"`
	SplitWords   []string `json:"split_words"`
	SourceFile   *string  `json:"source_file,omitempty"`
	StartTimeSec *float64 `json:"start_time_sec"`
	EndTimeSec   *float64 `json:"end_time_sec"`
}

func sentenceViews(sentences []*models.Sentence) []sentenceView {
	out := make([]sentenceView, 0, len(sentences))
	for _, s := range sentences {
		out = append(out, sentenceView{
			ID:           s.ID,
			LessonID:     s.LessonID,
			Ordinal:      s.Ordinal,
			OriginalText: s.OriginalText,
			SplitWords:   s.SplitWords,
			SourceFile:   s.SourceFile,
			StartTimeSec: s.StartTimeSec,
			EndTimeSec:   s.EndTimeSec,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		jsonError(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID < 1 {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return 0, false
	}
	return userID, true
}
