package bank

import (
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

type fixtureSheet struct {
	name string
	rows [][]string
}

// buildWorkbook assembles an in-memory xlsx file for loader tests.
func buildWorkbook(t *testing.T, sheets []fixtureSheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				t.Fatalf("SetSheetName: %v", err)
			}
		} else {
			if _, err := f.NewSheet(sh.name); err != nil {
				t.Fatalf("NewSheet: %v", err)
			}
		}
		for r, row := range sh.rows {
			cells := make([]any, len(row))
			for c, v := range row {
				cells[c] = v
			}
			start, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetSheetRow(sh.name, start, &cells); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestLoadWorkbookMultiSheet(t *testing.T) {
	data := buildWorkbook(t, []fixtureSheet{
		{
			name: "第一章",
			rows: [][]string{
				{"ID", "Question", "OptionA", "OptionB"},
				{"1", "Q1", "*a", "b"},
				{"2", "Q2", "a", "*b"},
			},
		},
		{
			name: "第二章",
			rows: [][]string{
				{"編號", "題目", "選項一", "選項二", "答案"},
				{"1", "Q3", "x", "y", "B"},
			},
		},
	})

	qs, diag, err := LoadWorkbook("bank.xlsx", data)
	if err != nil {
		t.Fatalf("LoadWorkbook: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(qs))
	}
	if diag.Loaded != 3 || diag.SkippedSheets != 0 {
		t.Errorf("diagnostics = %+v", diag)
	}
	// Rows keep per-sheet provenance and sheet-name tags.
	if qs[0].SourceSheet != "第一章" || qs[2].SourceSheet != "第二章" {
		t.Errorf("unexpected provenance: %q %q", qs[0].SourceSheet, qs[2].SourceSheet)
	}
	if qs[0].Tag != "第一章" {
		t.Errorf("expected sheet-name tag, got %q", qs[0].Tag)
	}
	// Ids are not deduplicated across sheets.
	if qs[0].ID != "1" || qs[2].ID != "1" {
		t.Errorf("expected shared id '1', got %q and %q", qs[0].ID, qs[2].ID)
	}
}

func TestLoadWorkbookSkipsBadSheet(t *testing.T) {
	data := buildWorkbook(t, []fixtureSheet{
		{
			name: "questions",
			rows: [][]string{
				{"ID", "Question", "OptionA", "OptionB"},
				{"1", "Q1", "*a", "b"},
			},
		},
		{
			name: "scratch",
			rows: [][]string{
				{"ID", "Question", "OptionA"},
				{"1", "single option sheet", "a"},
			},
		},
	})

	qs, diag, err := LoadWorkbook("bank.xlsx", data)
	if err != nil {
		t.Fatalf("LoadWorkbook should skip the bad sheet, got %v", err)
	}
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	if diag.SkippedSheets != 1 {
		t.Errorf("expected 1 skipped sheet, got %d", diag.SkippedSheets)
	}
	var found bool
	for _, r := range diag.Sheets {
		if r.Sheet == "scratch" && r.Skipped {
			found = true
		}
	}
	if !found {
		t.Error("skipped sheet missing from diagnostics")
	}
}

func TestLoadWorkbookEmptyBank(t *testing.T) {
	data := buildWorkbook(t, []fixtureSheet{
		{
			name: "notes",
			rows: [][]string{
				{"Title", "Body"},
				{"hello", "world"},
			},
		},
	})

	_, _, err := LoadWorkbook("bank.xlsx", data)
	if !errors.Is(err, ErrEmptyBank) {
		t.Fatalf("expected ErrEmptyBank, got %v", err)
	}
}

func TestMergeMultipleFiles(t *testing.T) {
	first := buildWorkbook(t, []fixtureSheet{
		{
			name: "a",
			rows: [][]string{
				{"ID", "Question", "OptionA", "OptionB"},
				{"1", "Q1", "*a", "b"},
			},
		},
	})
	second := buildWorkbook(t, []fixtureSheet{
		{
			name: "b",
			rows: [][]string{
				{"ID", "Question", "OptionA", "OptionB"},
				{"9", "Q2", "a", "*b"},
			},
		},
	})

	qs, diag, err := Merge([]File{
		{Name: "first.xlsx", Data: first},
		{Name: "broken.xlsx", Data: []byte("not an xlsx file")},
		{Name: "second.xlsx", Data: second},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	// Source order is preserved across files.
	if qs[0].SourceFile != "first.xlsx" || qs[1].SourceFile != "second.xlsx" {
		t.Errorf("unexpected file order: %q %q", qs[0].SourceFile, qs[1].SourceFile)
	}
	if diag.SkippedSheets != 1 {
		t.Errorf("expected the broken file to be skipped, got %d skips", diag.SkippedSheets)
	}
}

func TestMergeAllSourcesFail(t *testing.T) {
	_, _, err := Merge([]File{
		{Name: "broken.xlsx", Data: []byte("garbage")},
	})
	if !errors.Is(err, ErrEmptyBank) {
		t.Fatalf("expected ErrEmptyBank, got %v", err)
	}
}
