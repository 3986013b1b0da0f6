package exam

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/lchuang/mockexam/internal/model"
)

// Grade compares submitted answers against a sampled paper. Questions absent
// from submitted count as unanswered (empty set), never as an error. A
// question is correct only when the predicted and expected letter sets are
// exactly equal; partial credit is not supported. Grade is pure: grading the
// same paper and answers twice yields identical results.
func Grade(paper []model.SampledQuestion, submitted map[string][]string) model.GradeSummary {
	records := make([]model.ScoreRecord, 0, len(paper))
	correct := 0

	for _, q := range paper {
		predicted := normalizeLetters(submitted[q.ID])
		expected := normalizeLetters(q.Answer)
		ok := slices.Equal(predicted, expected)
		if ok {
			correct++
		}
		records = append(records, model.ScoreRecord{
			QuestionID: q.ID,
			Predicted:  predicted,
			Expected:   expected,
			Correct:    ok,
		})
	}

	summary := model.GradeSummary{
		Records:      records,
		CorrectCount: correct,
		Total:        len(paper),
	}
	if summary.Total > 0 {
		summary.Percent = math.Round(10000*float64(correct)/float64(summary.Total)) / 100
	}
	return summary
}

// BuildResultRows flattens a graded paper into export records, pairing each
// score with its question's text, tag, and explanation.
func BuildResultRows(paper []model.SampledQuestion, summary model.GradeSummary) []model.ResultRow {
	rows := make([]model.ResultRow, 0, len(paper))
	for i, q := range paper {
		rec := summary.Records[i]
		rows = append(rows, model.ResultRow{
			Position:    i + 1,
			QuestionID:  q.ID,
			Tag:         q.Tag,
			Question:    q.Text,
			Submitted:   strings.Join(rec.Predicted, ""),
			Expected:    strings.Join(rec.Expected, ""),
			Correct:     rec.Correct,
			Explanation: q.Explanation,
		})
	}
	return rows
}

// normalizeLetters uppercases, deduplicates, and sorts a letter set so that
// comparison is order- and duplicate-independent. The result is never nil.
func normalizeLetters(letters []string) []string {
	out := make([]string, 0, len(letters))
	seen := make(map[string]bool, len(letters))
	for _, l := range letters {
		l = strings.ToUpper(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
