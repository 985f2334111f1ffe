package domain

import "time"

// Setting is a single key-value configuration row, editable by operators at runtime.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
