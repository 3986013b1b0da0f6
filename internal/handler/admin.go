package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lchuang/mockexam/internal/bank"
	"github.com/lchuang/mockexam/internal/i18n"
)

// requireAdmin guards admin routes with a bearer token checked against the
// configured bcrypt hash.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.config.AdminPasswordHash == "" {
			apiError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			apiError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h.config.AdminPasswordHash), []byte(token)); err != nil {
			apiError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleListBanks(w http.ResponseWriter, r *http.Request) {
	keys, err := h.storage.ListBanks(r.Context())
	if err != nil {
		slog.Error("list banks", "error", err)
		apiError(w, r, http.StatusInternalServerError, "InvalidRequest")
		return
	}

	current := h.storage.ResolveCurrent(r.Context(), h.config.Category, h.config.DefaultBankPath)
	writeJSON(w, http.StatusOK, map[string]any{
		"banks":   keys,
		"current": current,
	})
}

// handleUploadBank stores a new bank file. The upload is validated as a
// loadable workbook before it is accepted.
func (h *Handler) handleUploadBank(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		apiError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	file, header, err := r.FormFile("bank_file")
	if err != nil {
		apiError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}
	defer file.Close()

	name := path.Base(header.Filename)
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		apiError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		apiError(w, r, http.StatusBadRequest, "UploadFailed")
		return
	}

	if err := h.validateBank(name, data); err != nil {
		slog.Warn("rejected bank upload", "name", name, "error", err)
		apiError(w, r, http.StatusUnprocessableEntity, "UploadFailed")
		return
	}

	key, err := h.storage.UploadBank(r.Context(), name, data)
	if err != nil {
		slog.Error("upload bank", "name", name, "error", err)
		apiError(w, r, http.StatusInternalServerError, "UploadFailed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (h *Handler) validateBank(name string, data []byte) error {
	_, _, err := bank.LoadWorkbook(name, data)
	return err
}

type setCurrentRequest struct {
	Name string `json:"name"`
}

// handleSetCurrentBank repoints the category at another bank and reloads.
func (h *Handler) handleSetCurrentBank(w http.ResponseWriter, r *http.Request) {
	var req setCurrentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		apiError(w, r, http.StatusBadRequest, "InvalidRequest")
		return
	}

	if err := h.storage.SetCurrent(r.Context(), h.config.Category, req.Name); err != nil {
		slog.Error("set current bank", "name", req.Name, "error", err)
		apiError(w, r, http.StatusInternalServerError, "InvalidRequest")
		return
	}

	if err := h.LoadBank(r.Context()); err != nil {
		slog.Error("reload after switch failed", "name", req.Name, "error", err)
		apiError(w, r, http.StatusServiceUnavailable, "BankUnavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": i18n.T(r.Context(), "BankSwitched")})
}
