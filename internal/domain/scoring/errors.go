package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrBadTables = errors.New("invalid score tables asset")
)
