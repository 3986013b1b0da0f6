package bank

import (
	"log/slog"

	"github.com/lchuang/mockexam/internal/model"
)

// File is one workbook to merge, by display name and raw xlsx content.
type File struct {
	Name string
	Data []byte
}

// SheetReport records what happened to a single sheet (or an unreadable
// file) during loading.
type SheetReport struct {
	File    string `json:"file,omitempty"`
	Sheet   string `json:"sheet,omitempty"`
	Loaded  int    `json:"loaded"`
	Dropped int    `json:"dropped"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Diagnostics reports what the loader kept, dropped, and skipped, so callers
// and tests can observe degraded loads without trawling logs.
type Diagnostics struct {
	Sheets        []SheetReport `json:"sheets"`
	Loaded        int           `json:"loaded"`
	Dropped       int           `json:"dropped"`
	SkippedSheets int           `json:"skipped_sheets"`
}

// NormalizeSheet runs the full normalization pipeline on one sheet: header
// canonicalization, answer inference with marker stripping, and the
// minimum-two-options row filter. The returned int is the dropped-row count.
// Header-level failures (ErrInsufficientOptions, ErrMissingRequiredField)
// are fatal here; merge-level callers convert them into skips.
func NormalizeSheet(sh Sheet, sourceFile string) ([]model.Question, int, error) {
	t, err := normalizeTable(sh)
	if err != nil {
		return nil, 0, err
	}
	inferAnswers(t)
	qs, dropped := buildQuestions(t, sourceFile, sh.Name)
	return qs, dropped, nil
}

// LoadWorkbook builds a bank from every sheet of a single workbook. Sheets
// that fail normalization are skipped; non-question scratch sheets are common
// enough that a bad sheet must not sink the load. Only a workbook that yields
// zero questions overall fails, with ErrEmptyBank.
func LoadWorkbook(name string, data []byte) ([]model.Question, *Diagnostics, error) {
	sheets, err := ParseWorkbook(data)
	if err != nil {
		return nil, nil, err
	}
	diag := &Diagnostics{}
	bank := mergeSheets(diag, name, sheets)
	if len(bank) == 0 {
		return nil, diag, ErrEmptyBank
	}
	return bank, diag, nil
}

// Merge concatenates the banks of several workbooks. Unreadable files and
// malformed sheets are skipped with a report; row order within and across
// sources is preserved and ids are not deduplicated, so two sources may
// legally share an ID. ErrEmptyBank is returned only when nothing survives.
func Merge(files []File) ([]model.Question, *Diagnostics, error) {
	diag := &Diagnostics{}
	var bank []model.Question
	for _, f := range files {
		sheets, err := ParseWorkbook(f.Data)
		if err != nil {
			slog.Warn("skipping unreadable workbook", "file", f.Name, "error", err)
			diag.Sheets = append(diag.Sheets, SheetReport{File: f.Name, Skipped: true, Reason: err.Error()})
			diag.SkippedSheets++
			continue
		}
		bank = append(bank, mergeSheets(diag, f.Name, sheets)...)
	}
	if len(bank) == 0 {
		return nil, diag, ErrEmptyBank
	}
	return bank, diag, nil
}

func mergeSheets(diag *Diagnostics, file string, sheets []Sheet) []model.Question {
	var bank []model.Question
	for _, sh := range sheets {
		qs, dropped, err := NormalizeSheet(sh, file)
		if err != nil {
			slog.Warn("skipping sheet", "file", file, "sheet", sh.Name, "error", err)
			diag.Sheets = append(diag.Sheets, SheetReport{
				File: file, Sheet: sh.Name, Skipped: true, Reason: err.Error(),
			})
			diag.SkippedSheets++
			continue
		}
		diag.Sheets = append(diag.Sheets, SheetReport{
			File: file, Sheet: sh.Name, Loaded: len(qs), Dropped: dropped,
		})
		diag.Loaded += len(qs)
		diag.Dropped += dropped
		bank = append(bank, qs...)
	}
	return bank
}
