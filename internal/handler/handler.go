package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lchuang/mockexam/internal/bank"
	"github.com/lchuang/mockexam/internal/exam"
	"github.com/lchuang/mockexam/internal/i18n"
	"github.com/lchuang/mockexam/internal/llm"
	"github.com/lchuang/mockexam/internal/model"
	"github.com/lchuang/mockexam/internal/store"
)

// Config holds handler settings.
type Config struct {
	// Category selects which entry of the bank pointer applies.
	Category string
	// DefaultBankPath is used when the pointer has no entry for the category.
	DefaultBankPath string
	// AdminPasswordHash is the bcrypt hash admin requests must match.
	AdminPasswordHash string
	// PaperTTL bounds how long an unsubmitted paper stays addressable.
	PaperTTL time.Duration
}

// BankStorage is the object-store surface the handlers need.
type BankStorage interface {
	Download(ctx context.Context, key string) ([]byte, error)
	UploadBank(ctx context.Context, name string, data []byte) (string, error)
	ListBanks(ctx context.Context) ([]string, error)
	ResolveCurrent(ctx context.Context, category, fallback string) string
	SetCurrent(ctx context.Context, category, name string) error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	storage BankStorage
	store   *store.Store
	llm     *llm.Client
	config  Config

	mu       sync.RWMutex
	bank     []model.Question
	diag     *bank.Diagnostics
	bankPath string

	papersMu sync.Mutex
	papers   map[string]*paperEntry
}

type paperEntry struct {
	questions []model.SampledQuestion
	bankPath  string
	created   time.Time
}

// New creates a new Handler. The LLM client may be nil; AI endpoints then
// answer 503.
func New(storage BankStorage, s *store.Store, l *llm.Client, cfg Config) *Handler {
	if cfg.PaperTTL <= 0 {
		cfg.PaperTTL = 2 * time.Hour
	}
	return &Handler{
		storage: storage,
		store:   s,
		llm:     l,
		config:  cfg,
		papers:  make(map[string]*paperEntry),
	}
}

// LoadBank resolves the current bank for the configured category, downloads
// it, and swaps it in. The previous bank stays active if loading fails.
func (h *Handler) LoadBank(ctx context.Context) error {
	key := h.storage.ResolveCurrent(ctx, h.config.Category, h.config.DefaultBankPath)
	if key == "" {
		return fmt.Errorf("no bank configured for category %q", h.config.Category)
	}

	data, err := h.storage.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("download bank %s: %w", key, err)
	}

	questions, diag, err := bank.LoadWorkbook(key, data)
	if err != nil {
		return fmt.Errorf("load bank %s: %w", key, err)
	}

	h.mu.Lock()
	h.bank = questions
	h.diag = diag
	h.bankPath = key
	h.mu.Unlock()

	slog.Info("bank loaded", "path", key, "questions", len(questions), "skipped_sheets", diag.SkippedSheets)
	return nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/bank", h.handleBankInfo)
	r.Post("/bank/reload", h.handleBankReload)
	r.Post("/papers", h.handleCreatePaper)
	r.Post("/papers/{paperID}/grade", h.handleGradePaper)
	r.Get("/papers/{paperID}/questions/{questionID}/hint", h.handleHint)
	r.Get("/papers/{paperID}/questions/{questionID}/explain", h.handleExplain)
	r.Get("/attempts", h.handleListAttempts)
	r.Get("/attempts/{attemptID}", h.handleGetAttempt)
	r.Get("/attempts/{attemptID}/export", h.handleExportAttempt)
	r.Post("/attempts/{attemptID}/summary", h.handleSummarizeAttempt)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/banks", h.handleListBanks)
		r.Post("/banks", h.handleUploadBank)
		r.Put("/banks/current", h.handleSetCurrentBank)
	})
}

type bankInfoResponse struct {
	Path      string             `json:"path"`
	Questions int                `json:"questions"`
	Tags      []string           `json:"tags"`
	Sheets    []bank.SheetReport `json:"sheets"`
}

func (h *Handler) handleBankInfo(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.bank == nil {
		apiError(w, r, http.StatusServiceUnavailable, "BankUnavailable")
		return
	}
	writeJSON(w, http.StatusOK, bankInfoResponse{
		Path:      h.bankPath,
		Questions: len(h.bank),
		Tags:      exam.Tags(h.bank),
		Sheets:    h.diag.Sheets,
	})
}

func (h *Handler) handleBankReload(w http.ResponseWriter, r *http.Request) {
	if err := h.LoadBank(r.Context()); err != nil {
		slog.Error("bank reload failed", "error", err)
		apiError(w, r, http.StatusServiceUnavailable, "BankUnavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": i18n.T(r.Context(), "BankReloaded")})
}

type createPaperRequest struct {
	Count          int      `json:"count"`
	Tags           []string `json:"tags"`
	ShuffleOptions bool     `json:"shuffle_options"`
	ShuffleOrder   bool     `json:"shuffle_order"`
}

// paperQuestion is a SampledQuestion with the answer and explanation held
// back until grading.
type paperQuestion struct {
	ID      string             `json:"id"`
	Text    string             `json:"text"`
	Type    model.QuestionType `json:"type"`
	Choices []model.Choice     `json:"choices"`
	Tag     string             `json:"tag,omitempty"`
	Image   string             `json:"image,omitempty"`
}

type createPaperResponse struct {
	PaperID   string          `json:"paper_id"`
	Questions []paperQuestion `json:"questions"`
}

func (h *Handler) handleCreatePaper(w http.ResponseWriter, r *http.Request) {
	var req createPaperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	h.mu.RLock()
	questions := h.bank
	bankPath := h.bankPath
	h.mu.RUnlock()
	if questions == nil {
		apiError(w, r, http.StatusServiceUnavailable, "BankUnavailable")
		return
	}

	pool := exam.FilterByTag(questions, req.Tags)
	paper := exam.Sample(pool, exam.Options{
		Count:          req.Count,
		ShuffleOptions: req.ShuffleOptions,
		ShuffleOrder:   req.ShuffleOrder,
	})
	if len(paper) == 0 {
		apiError(w, r, http.StatusBadRequest, "PaperEmpty")
		return
	}

	id, err := h.storePaper(paper, bankPath)
	if err != nil {
		slog.Error("store paper", "error", err)
		apiError(w, r, http.StatusInternalServerError, "InvalidRequest")
		return
	}

	resp := createPaperResponse{PaperID: id, Questions: make([]paperQuestion, 0, len(paper))}
	for _, q := range paper {
		resp.Questions = append(resp.Questions, paperQuestion{
			ID:      q.ID,
			Text:    q.Text,
			Type:    q.Type,
			Choices: q.Choices,
			Tag:     q.Tag,
			Image:   q.Image,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

type gradeRequest struct {
	Answers map[string][]string `json:"answers"`
}

type gradeResponse struct {
	AttemptID    int64               `json:"attempt_id"`
	CorrectCount int                 `json:"correct_count"`
	Total        int                 `json:"total"`
	Percent      float64             `json:"percent"`
	Rows         []model.ResultRow   `json:"rows"`
	Records      []model.ScoreRecord `json:"records"`
}

func (h *Handler) handleGradePaper(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getPaper(chi.URLParam(r, "paperID"))
	if !ok {
		apiError(w, r, http.StatusNotFound, "PaperNotFound")
		return
	}

	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	summary := exam.Grade(entry.questions, req.Answers)
	rows := exam.BuildResultRows(entry.questions, summary)

	attemptID, err := h.store.SaveAttempt(model.Attempt{
		BankPath:     entry.bankPath,
		TakenAt:      time.Now(),
		Total:        summary.Total,
		CorrectCount: summary.CorrectCount,
		Percent:      summary.Percent,
	}, rows)
	if err != nil {
		slog.Error("save attempt", "error", err)
		apiError(w, r, http.StatusInternalServerError, "InvalidRequest")
		return
	}

	writeJSON(w, http.StatusOK, gradeResponse{
		AttemptID:    attemptID,
		CorrectCount: summary.CorrectCount,
		Total:        summary.Total,
		Percent:      summary.Percent,
		Rows:         rows,
		Records:      summary.Records,
	})
}

func (h *Handler) handleHint(w http.ResponseWriter, r *http.Request) {
	q, ok := h.paperQuestion(chi.URLParam(r, "paperID"), chi.URLParam(r, "questionID"))
	if !ok {
		apiError(w, r, http.StatusNotFound, "QuestionNotFound")
		return
	}
	if h.llm == nil {
		apiError(w, r, http.StatusServiceUnavailable, "LLMDisabled")
		return
	}

	hint, err := h.llm.Hint(r.Context(), q)
	if err != nil {
		slog.Error("hint failed", "question", q.ID, "error", err)
		apiError(w, r, http.StatusBadGateway, "LLMFailed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hint": hint})
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	q, ok := h.paperQuestion(chi.URLParam(r, "paperID"), chi.URLParam(r, "questionID"))
	if !ok {
		apiError(w, r, http.StatusNotFound, "QuestionNotFound")
		return
	}
	if h.llm == nil {
		apiError(w, r, http.StatusServiceUnavailable, "LLMDisabled")
		return
	}

	explanation, err := h.llm.Explain(r.Context(), q)
	if err != nil {
		slog.Error("explain failed", "question", q.ID, "error", err)
		apiError(w, r, http.StatusBadGateway, "LLMFailed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": explanation})
}

// storePaper registers a paper under a fresh random id, evicting expired
// papers as a side effect.
func (h *Handler) storePaper(questions []model.SampledQuestion, bankPath string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate paper id: %w", err)
	}
	id := hex.EncodeToString(buf)

	h.papersMu.Lock()
	defer h.papersMu.Unlock()
	h.evictExpiredLocked()
	h.papers[id] = &paperEntry{questions: questions, bankPath: bankPath, created: time.Now()}
	return id, nil
}

func (h *Handler) getPaper(id string) (*paperEntry, bool) {
	h.papersMu.Lock()
	defer h.papersMu.Unlock()
	h.evictExpiredLocked()
	entry, ok := h.papers[id]
	return entry, ok
}

func (h *Handler) paperQuestion(paperID, questionID string) (model.SampledQuestion, bool) {
	entry, ok := h.getPaper(paperID)
	if !ok {
		return model.SampledQuestion{}, false
	}
	for _, q := range entry.questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return model.SampledQuestion{}, false
}

func (h *Handler) evictExpiredLocked() {
	cutoff := time.Now().Add(-h.config.PaperTTL)
	for id, entry := range h.papers {
		if entry.created.Before(cutoff) {
			delete(h.papers, id)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func apiError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, map[string]string{"error": i18n.T(r.Context(), msgID)})
}
