package transferservice

import (
	"time"

	"github.com/sbpr-app/sbpr_backend/internal/domain/measurement"
)

const (
	// AppName identifies export documents produced by this application.
	// Imports with a different identifier are rejected.
	AppName = "sbpr"

	FormatVersion = "0.1.0"
)

type Document struct {
	Version       string            `json:"version"`
	AppName       string            `json:"appName"`
	ExportedAt    string            `json:"exportedAt"`
	RecordCount   int               `json:"recordCount"`
	Records       []RecordDoc       `json:"records"`
	Profile       *ProfileDoc       `json:"profile,omitempty"`
	AIMemo        *string           `json:"aiMemo,omitempty"`
	AIModel       *string           `json:"aiModel,omitempty"`
	ChartSettings *ChartSettingsDoc `json:"chartSettings,omitempty"`
}

type RecordDoc struct {
	ID         string   `json:"id"`
	MeasuredAt string   `json:"measuredAt"`
	Systolic   int      `json:"systolic"`
	Diastolic  int      `json:"diastolic"`
	Pulse      *int     `json:"pulse,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
	Mood       *int     `json:"mood,omitempty"`
	Condition  *int     `json:"condition,omitempty"`
	Memo       *string  `json:"memo,omitempty"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

type ProfileDoc struct {
	Birthday string `json:"birthday"`
	Gender   string `json:"gender"`
	Height   string `json:"height"`
}

type ChartSettingsDoc struct {
	DayStartHour   int `json:"dayStartHour"`
	NightStartHour int `json:"nightStartHour"`
}

func newRecordDoc(r *measurement.Record) RecordDoc {
	return RecordDoc{
		ID:         r.RecordID,
		MeasuredAt: r.MeasuredAt.UTC().Format(time.RFC3339Nano),
		Systolic:   r.Systolic,
		Diastolic:  r.Diastolic,
		Pulse:      r.Pulse,
		Weight:     r.Weight,
		Mood:       r.Mood,
		Condition:  r.Condition,
		Memo:       r.Memo,
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ExportFilename names a download the way the UI expects, e.g.
// sbpr_export_20260829_153045.json.
func ExportFilename(t time.Time, ext string) string {
	return AppName + "_export_" + t.Format("20060102_150405") + "." + ext
}
