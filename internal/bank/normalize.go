package bank

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/width"

	"github.com/lchuang/mockexam/internal/model"
)

// columnSynonyms renames known source headers (many-to-one) to the canonical
// vocabulary. Unrecognized headers pass through unchanged.
var columnSynonyms = map[string]string{
	"編號":   "ID",
	"題號":   "ID",
	"題目":   "Question",
	"題幹":   "Question",
	"解答說明": "Explanation",
	"解釋說明": "Explanation",
	"詳解":   "Explanation",
	"標籤":   "Tag",
	"章節":   "Tag",
	"科目":   "Tag",
	"圖片":   "Image",
	"選項一":  "OptionA",
	"選項二":  "OptionB",
	"選項三":  "OptionC",
	"選項四":  "OptionD",
	"選項五":  "OptionE",
	"答案":   "Answer",
	"題型":   "Type",
}

// optionalColumns are backfilled with empty strings when absent.
var optionalColumns = []string{"Explanation", "Tag", "Image"}

// canonicalColumn maps one trimmed source header to its canonical name and
// reports whether it is an option column. Detection rules, in priority order:
// a header already starting with "Option" is kept; a bare letter A-E becomes
// Option<Letter>; a full-width letter Ａ-Ｅ is folded to its halfwidth form
// first and then treated the same way.
func canonicalColumn(h string) (string, bool) {
	if std, ok := columnSynonyms[h]; ok {
		return std, strings.HasPrefix(std, "Option")
	}
	if strings.HasPrefix(strings.ToLower(h), "option") {
		rest := strings.ToUpper(strings.TrimSpace(h[len("option"):]))
		if len(rest) == 1 && rest[0] >= 'A' && rest[0] <= 'E' {
			return "Option" + rest, true
		}
		return h, true
	}
	folded := width.Fold.String(h)
	if len(folded) == 1 && folded[0] >= 'A' && folded[0] <= 'E' {
		return "Option" + folded, true
	}
	return h, false
}

// table is a normalized sheet: rows keyed by canonical column names.
type table struct {
	rows       []map[string]string
	optionCols []string
	hasAnswer  bool
	hasType    bool
}

// normalizeTable canonicalizes the sheet's headers and re-keys every row.
// It fails when fewer than two option columns are detected or when ID or
// Question is still missing after renaming.
func normalizeTable(sh Sheet) (*table, error) {
	cols := make([]string, len(sh.Header))
	optSet := make(map[string]bool)
	for i, h := range sh.Header {
		name, isOpt := canonicalColumn(strings.TrimSpace(h))
		cols[i] = name
		if isOpt {
			optSet[name] = true
		}
	}

	optionCols := make([]string, 0, len(optSet))
	for c := range optSet {
		optionCols = append(optionCols, c)
	}
	sort.Strings(optionCols)
	if len(optionCols) < 2 {
		return nil, fmt.Errorf("%w (sheet %q has %d)", ErrInsufficientOptions, sh.Name, len(optionCols))
	}

	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}
	for _, required := range []string{"ID", "Question"} {
		if !present[required] {
			return nil, fmt.Errorf("%w: %s (sheet %q)", ErrMissingRequiredField, required, sh.Name)
		}
	}

	rows := make([]map[string]string, 0, len(sh.Rows))
	for _, rec := range sh.Rows {
		row := make(map[string]string, len(cols)+len(optionalColumns))
		for i, c := range cols {
			if c == "" {
				continue
			}
			if i < len(rec) {
				row[c] = rec[i]
			} else {
				row[c] = ""
			}
		}
		for _, c := range optionalColumns {
			if !present[c] {
				row[c] = ""
			}
		}
		rows = append(rows, row)
	}

	return &table{
		rows:       rows,
		optionCols: optionCols,
		hasAnswer:  present["Answer"],
		hasType:    present["Type"],
	}, nil
}

// buildQuestions converts a fully normalized table into canonical questions.
// Rows with fewer than two non-empty options, or a blank question text, are
// dropped; the dropped count is returned for diagnostics. Answer letters that
// point at a missing option are discarded here so every constructed question
// is internally consistent.
func buildQuestions(t *table, sourceFile, sheetName string) ([]model.Question, int) {
	var out []model.Question
	dropped := 0

	for _, row := range t.rows {
		var opts []model.Choice
		for i, oc := range t.optionCols {
			text := strings.TrimSpace(row[oc])
			if text == "" {
				continue
			}
			opts = append(opts, model.Choice{Letter: positionLetter(i), Text: text})
		}
		questionText := strings.TrimSpace(row["Question"])
		if len(opts) < 2 || questionText == "" {
			dropped++
			continue
		}

		present := make(map[string]bool, len(opts))
		for _, c := range opts {
			present[c.Letter] = true
		}
		var answer []string
		seen := make(map[string]bool)
		for _, r := range row["Answer"] {
			letter := string(r)
			if seen[letter] {
				continue
			}
			seen[letter] = true
			if !present[letter] {
				slog.Warn("answer letter without matching option",
					"sheet", sheetName, "id", row["ID"], "letter", letter)
				continue
			}
			answer = append(answer, letter)
		}
		sort.Strings(answer)

		qType := model.SingleChoice
		if row["Type"] == string(model.MultipleChoice) {
			qType = model.MultipleChoice
		}

		tag := strings.TrimSpace(row["Tag"])
		if tag == "" {
			tag = sheetName
		}

		out = append(out, model.Question{
			ID:          strings.TrimSpace(row["ID"]),
			Text:        questionText,
			Options:     opts,
			Answer:      answer,
			Type:        qType,
			Explanation: strings.TrimSpace(row["Explanation"]),
			Tag:         tag,
			Image:       strings.TrimSpace(row["Image"]),
			SourceFile:  sourceFile,
			SourceSheet: sheetName,
		})
	}

	return out, dropped
}

// positionLetter is the original-position letter for an option column index.
func positionLetter(i int) string {
	return string(rune('A' + i))
}
