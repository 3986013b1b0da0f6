package model

import "time"

// ResultRow is the flat per-question record handed to export consumers
// (CSV download, attempt history, AI summary).
type ResultRow struct {
	Position    int    `json:"position"`
	QuestionID  string `json:"question_id"`
	Tag         string `json:"tag,omitempty"`
	Question    string `json:"question"`
	Submitted   string `json:"submitted"`
	Expected    string `json:"expected"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

// AttemptExport bundles one attempt with its per-question rows.
type AttemptExport struct {
	Attempt Attempt     `json:"attempt"`
	Rows    []ResultRow `json:"rows"`
}

// ResultExport is the top-level JSON structure produced by the export command.
type ResultExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Attempts   []AttemptExport `json:"attempts"`
}
