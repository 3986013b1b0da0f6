package model

import "time"

// QuestionType distinguishes single-choice from multiple-choice questions.
type QuestionType string

const (
	// SingleChoice questions have at most one correct letter.
	SingleChoice QuestionType = "SC"
	// MultipleChoice questions have two or more correct letters.
	MultipleChoice QuestionType = "MC"
)

// Choice pairs an option letter with its display text.
type Choice struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Question is the canonical form of one question-bank row. Options keep the
// letters assigned by source column order; Answer refers to those letters.
// A bank is immutable once loaded: sampling and grading never modify it.
type Question struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Options     []Choice     `json:"options"`
	Answer      []string     `json:"answer,omitempty"`
	Type        QuestionType `json:"type"`
	Explanation string       `json:"explanation,omitempty"`
	Tag         string       `json:"tag,omitempty"`
	Image       string       `json:"image,omitempty"`
	SourceFile  string       `json:"source_file,omitempty"`
	SourceSheet string       `json:"source_sheet,omitempty"`
}

// SampledQuestion is one question instance on a generated paper. Choices carry
// fresh letters assigned after shuffling; Answer refers to those letters, not
// to the bank's original ones. Two papers built from the same bank question
// may label the same option text differently.
type SampledQuestion struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Type        QuestionType `json:"type"`
	Choices     []Choice     `json:"choices"`
	Answer      []string     `json:"answer,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
	Tag         string       `json:"tag,omitempty"`
	Image       string       `json:"image,omitempty"`
}

// ScoreRecord is the graded outcome for one sampled question. Predicted and
// Expected are letter sets (sorted, deduplicated); Correct is exact set
// equality, so a superset or subset of the expected letters is wrong.
type ScoreRecord struct {
	QuestionID string   `json:"question_id"`
	Predicted  []string `json:"predicted"`
	Expected   []string `json:"expected"`
	Correct    bool     `json:"correct"`
}

// GradeSummary aggregates the score records for one submitted paper.
type GradeSummary struct {
	Records      []ScoreRecord `json:"records"`
	CorrectCount int           `json:"correct_count"`
	Total        int           `json:"total"`
	Percent      float64       `json:"percent"`
}

// Attempt is one persisted paper submission.
type Attempt struct {
	ID           int64     `json:"id"`
	BankPath     string    `json:"bank_path"`
	TakenAt      time.Time `json:"taken_at"`
	Total        int       `json:"total"`
	CorrectCount int       `json:"correct_count"`
	Percent      float64   `json:"percent"`
}
