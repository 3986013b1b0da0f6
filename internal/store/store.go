package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lchuang/mockexam/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bank_path TEXT NOT NULL,
		taken_at DATETIME NOT NULL,
		total INTEGER NOT NULL,
		correct_count INTEGER NOT NULL,
		percent REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attempt_answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attempt_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		tag TEXT NOT NULL DEFAULT '',
		question TEXT NOT NULL,
		submitted TEXT NOT NULL DEFAULT '',
		expected TEXT NOT NULL DEFAULT '',
		correct INTEGER NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (attempt_id) REFERENCES attempts(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveAttempt stores a graded paper and its per-question rows in one
// transaction.
func (s *Store) SaveAttempt(a model.Attempt, rows []model.ResultRow) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	takenAt := a.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}

	res, err := tx.Exec(
		`INSERT INTO attempts (bank_path, taken_at, total, correct_count, percent) VALUES (?, ?, ?, ?, ?)`,
		a.BankPath, takenAt, a.Total, a.CorrectCount, a.Percent,
	)
	if err != nil {
		return 0, err
	}
	attemptID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, r := range rows {
		_, err := tx.Exec(
			`INSERT INTO attempt_answers (attempt_id, position, question_id, tag, question, submitted, expected, correct, explanation)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			attemptID, r.Position, r.QuestionID, r.Tag, r.Question, r.Submitted, r.Expected, r.Correct, r.Explanation,
		)
		if err != nil {
			return 0, err
		}
	}

	return attemptID, tx.Commit()
}

// GetAttempt returns one attempt with its rows in paper order.
func (s *Store) GetAttempt(id int64) (model.Attempt, []model.ResultRow, error) {
	var a model.Attempt
	err := s.db.QueryRow(
		`SELECT id, bank_path, taken_at, total, correct_count, percent FROM attempts WHERE id = ?`, id,
	).Scan(&a.ID, &a.BankPath, &a.TakenAt, &a.Total, &a.CorrectCount, &a.Percent)
	if err != nil {
		return model.Attempt{}, nil, err
	}

	rows, err := s.attemptRows(id)
	if err != nil {
		return model.Attempt{}, nil, err
	}
	return a, rows, nil
}

func (s *Store) attemptRows(attemptID int64) ([]model.ResultRow, error) {
	rows, err := s.db.Query(
		`SELECT position, question_id, tag, question, submitted, expected, correct, explanation
		 FROM attempt_answers WHERE attempt_id = ? ORDER BY position`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ResultRow
	for rows.Next() {
		var r model.ResultRow
		if err := rows.Scan(&r.Position, &r.QuestionID, &r.Tag, &r.Question, &r.Submitted, &r.Expected, &r.Correct, &r.Explanation); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAttempts returns all attempts, newest first.
func (s *Store) ListAttempts() ([]model.Attempt, error) {
	rows, err := s.db.Query(`SELECT id, bank_path, taken_at, total, correct_count, percent FROM attempts ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.BankPath, &a.TakenAt, &a.Total, &a.CorrectCount, &a.Percent); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// AttemptCount returns the number of stored attempts.
func (s *Store) AttemptCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM attempts`).Scan(&count)
	return count, err
}

// ExportAllAttempts assembles every attempt with its rows, oldest first.
func (s *Store) ExportAllAttempts() (model.ResultExport, error) {
	attempts, err := s.ListAttempts()
	if err != nil {
		return model.ResultExport{}, err
	}

	export := model.ResultExport{
		ExportedAt: time.Now(),
		Attempts:   make([]model.AttemptExport, 0, len(attempts)),
	}
	for i := len(attempts) - 1; i >= 0; i-- {
		a := attempts[i]
		rows, err := s.attemptRows(a.ID)
		if err != nil {
			return model.ResultExport{}, err
		}
		export.Attempts = append(export.Attempts, model.AttemptExport{
			Attempt: a,
			Rows:    rows,
		})
	}
	return export, nil
}
