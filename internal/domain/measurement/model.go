package measurement

import (
	"errors"
	"strings"
	"time"

	"github.com/sbpr-app/sbpr_backend/internal/domain"
)

var (
	ErrRecordExists   = errors.New("record already exists")
	ErrRecordNotFound = errors.New("record not found")
)

const EventRecorded = "measurement.recorded"

// Record is one blood-pressure reading. RecordID and CreatedAt are fixed at
// creation; every other field may be replaced by an edit.
type Record struct {
	domain.Aggregate
	RecordID   string
	MeasuredAt time.Time
	Systolic   int
	Diastolic  int
	Pulse      *int
	Weight     *float64
	Mood       *int
	Condition  *int
	Memo       *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func New(
	recordID string,
	measuredAt time.Time,
	systolic, diastolic int,
	pulse *int,
	weight *float64,
	mood, condition *int,
	memo *string,
) *Record {
	now := time.Now().UTC()
	return &Record{
		RecordID:   recordID,
		MeasuredAt: measuredAt.UTC(),
		Systolic:   systolic,
		Diastolic:  diastolic,
		Pulse:      pulse,
		Weight:     weight,
		Mood:       mood,
		Condition:  condition,
		Memo:       memo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r *Record) Grade() Grade {
	return Classify(r.Systolic, r.Diastolic)
}

type Recorded struct {
	RecordID string
	At       time.Time
}

func (e Recorded) Type() string {
	return EventRecorded
}

func (e Recorded) PublishedAt() time.Time {
	return e.At
}

// ValidationError carries every message collected by Validate. Error joins
// them all; callers that surface a single problem read Messages directly.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "invalid measurement"
	}
	return strings.Join(e.Messages, "; ")
}
