package handler

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.store.ListAttempts()
	if err != nil {
		slog.Error("list attempts", "error", err)
		apiError(w, r, http.StatusInternalServerError, "InvalidRequest")
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "attemptID"), 10, 64)
	if err != nil {
		apiError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	attempt, rows, err := h.store.GetAttempt(id)
	if errors.Is(err, sql.ErrNoRows) {
		apiError(w, r, http.StatusNotFound, "AttemptNotFound")
		return
	}
	if err != nil {
		slog.Error("get attempt", "id", id, "error", err)
		apiError(w, r, http.StatusInternalServerError, "InvalidRequest")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"attempt": attempt,
		"rows":    rows,
	})
}

// handleExportAttempt streams one attempt as CSV. The UTF-8 BOM keeps
// spreadsheet applications from garbling Chinese question text.
func (h *Handler) handleExportAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "attemptID"), 10, 64)
	if err != nil {
		apiError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	attempt, rows, err := h.store.GetAttempt(id)
	if errors.Is(err, sql.ErrNoRows) {
		apiError(w, r, http.StatusNotFound, "AttemptNotFound")
		return
	}
	if err != nil {
		slog.Error("get attempt", "id", id, "error", err)
		apiError(w, r, http.StatusInternalServerError, "InvalidRequest")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=attempt-%d-%s.csv", attempt.ID, attempt.TakenAt.Format("20060102-150405")))
	if _, err := w.Write([]byte("\xEF\xBB\xBF")); err != nil {
		return
	}

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"position", "question_id", "tag", "question", "submitted", "expected", "correct", "explanation"})
	for _, row := range rows {
		correct := "0"
		if row.Correct {
			correct = "1"
		}
		_ = cw.Write([]string{
			strconv.Itoa(row.Position),
			row.QuestionID,
			row.Tag,
			row.Question,
			row.Submitted,
			row.Expected,
			correct,
			row.Explanation,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("write csv", "id", id, "error", err)
	}
}

func (h *Handler) handleSummarizeAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "attemptID"), 10, 64)
	if err != nil {
		apiError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	_, rows, err := h.store.GetAttempt(id)
	if errors.Is(err, sql.ErrNoRows) {
		apiError(w, r, http.StatusNotFound, "AttemptNotFound")
		return
	}
	if err != nil {
		slog.Error("get attempt", "id", id, "error", err)
		apiError(w, r, http.StatusInternalServerError, "InvalidRequest")
		return
	}
	if h.llm == nil {
		apiError(w, r, http.StatusServiceUnavailable, "LLMDisabled")
		return
	}

	summary, err := h.llm.Summarize(r.Context(), rows)
	if err != nil {
		slog.Error("summarize failed", "id", id, "error", err)
		apiError(w, r, http.StatusBadGateway, "LLMFailed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}
