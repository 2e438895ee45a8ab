package domain

import "time"

// SubmissionRecord is what the surrounding application stores after a
// Submit call returns.
type SubmissionRecord struct {
	ID        string           `json:"id"        db:"id"`
	Status    SubmissionStatus `json:"status"    db:"status"`
	Signature Signature        `json:"signature" db:"signature"`
	Verdict   string           `json:"verdict"   db:"verdict"`
	Attempts  int              `json:"attempts"  db:"attempts"`
	Message   string           `json:"message"   db:"message"`
	RawError  string           `json:"raw_error" db:"raw_error"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type SubmissionStatus string

const (
	SubmissionStatusConfirmed SubmissionStatus = "confirmed"
	SubmissionStatusFailed    SubmissionStatus = "failed"
)
