package bank

import "errors"

var (
	// ErrInsufficientOptions means a table exposed fewer than two option
	// columns. Recoverable during a merge (the sheet is skipped), fatal when
	// loading a single table.
	ErrInsufficientOptions = errors.New("fewer than 2 option columns")

	// ErrMissingRequiredField means the ID or Question column is absent
	// after header renaming. Same recoverability as ErrInsufficientOptions.
	ErrMissingRequiredField = errors.New("missing required column")

	// ErrEmptyBank means no sheet in any source produced a usable question.
	// Always fatal; callers must surface a "bank unavailable" state.
	ErrEmptyBank = errors.New("no usable question bank")
)
