package transferservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/sbpr-app/sbpr_backend/internal/app/unitofwork"
	"github.com/sbpr-app/sbpr_backend/internal/domain/measurement"
	"github.com/sbpr-app/sbpr_backend/internal/domain/settings"
	"github.com/xuri/excelize/v2"
)

var (
	ErrBadFormat = errors.New("invalid export document")
	ErrWrongApp  = errors.New("document belongs to a different application")
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Export produces the portable document: format version, application
// identifier, export timestamp, the full record set, and whatever ancillary
// settings are present. The stored relay credential is deliberately left out.
func (s *Service) Export(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
) (doc *Document, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		records, err := ctx.Records.List(ctx.Context())
		if err != nil {
			return err
		}
		values, err := ctx.Settings.GetAll(ctx.Context())
		if err != nil {
			return err
		}

		doc = &Document{
			Version:     FormatVersion,
			AppName:     AppName,
			ExportedAt:  time.Now().UTC().Format(time.RFC3339Nano),
			RecordCount: len(records),
			Records: lo.Map(records, func(r *measurement.Record, _ int) RecordDoc {
				return newRecordDoc(r)
			}),
		}
		attachSettings(doc, values)

		return ctx.Commit()
	})
	if outErr != nil {
		return nil, outErr
	}
	return doc, nil
}

func attachSettings(doc *Document, values map[string]string) {
	birthday := values[settings.KeyProfileBirthday]
	gender := values[settings.KeyProfileGender]
	height := values[settings.KeyProfileHeight]
	if birthday != "" || gender != "" || height != "" {
		doc.Profile = &ProfileDoc{Birthday: birthday, Gender: gender, Height: height}
	}

	if memo := values[settings.KeyAIMemo]; memo != "" {
		doc.AIMemo = &memo
	}
	if model := values[settings.KeyAIModel]; model != "" {
		doc.AIModel = &model
	}

	_, hasDay := values[settings.KeyChartDayStartHour]
	_, hasNight := values[settings.KeyChartNightStartHour]
	if hasDay || hasNight {
		doc.ChartSettings = &ChartSettingsDoc{
			DayStartHour:   hourOrDefault(values[settings.KeyChartDayStartHour], settings.DefaultDayStartHour),
			NightStartHour: hourOrDefault(values[settings.KeyChartNightStartHour], settings.DefaultNightStartHour),
		}
	}
}

func hourOrDefault(raw string, fallback int) int {
	h, err := strconv.Atoi(raw)
	if err != nil || h < 0 || h > 23 {
		return fallback
	}
	return h
}

// ExportWorkbook renders the full record set as a spreadsheet, one row per
// measurement with its classification.
func (s *Service) ExportWorkbook(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
) (f *excelize.File, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		records, err := ctx.Records.List(ctx.Context())
		if err != nil {
			return err
		}

		f = excelize.NewFile()
		const sheet = "Records"
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}

		headers := []string{
			"Measured At", "Systolic", "Diastolic", "Pulse",
			"Weight (kg)", "Mood", "Condition", "Classification", "Memo",
		}
		for col, h := range headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return err
			}
		}

		for i, r := range records {
			cells := []any{
				r.MeasuredAt.Local().Format("2006-01-02 15:04"),
				r.Systolic,
				r.Diastolic,
				optCell(r.Pulse),
				optCell(r.Weight),
				optCell(r.Mood),
				optCell(r.Condition),
				r.Grade().String(),
				optCell(r.Memo),
			}
			for col, v := range cells {
				cell, err := excelize.CoordinatesToCellName(col+1, i+2)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
		}

		return ctx.Commit()
	})
	if outErr != nil {
		return nil, outErr
	}
	return f, nil
}

func optCell[T any](v *T) any {
	if v == nil {
		return ""
	}
	return *v
}

type ImportReport struct {
	Total            int
	Imported         int
	SkippedDuplicate int
	SkippedInvalid   int
}

type rawDocument struct {
	Version       string            `json:"version"`
	AppName       string            `json:"appName"`
	Records       json.RawMessage   `json:"records"`
	Profile       *ProfileDoc       `json:"profile"`
	AIMemo        *string           `json:"aiMemo"`
	AIModel       *string           `json:"aiModel"`
	ChartSettings *ChartSettingsDoc `json:"chartSettings"`
}

// Import restores a document. Format problems abort before anything is
// written; per-record problems only skip that record. The duplicate check runs
// against a snapshot of the ids present when the import starts, extended with
// each id as it lands so a file that repeats an id counts the repeat as a
// duplicate.
func (s *Service) Import(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	data []byte,
) (report *ImportReport, outErr error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(fmt.Errorf("parse document: %w", err), ErrBadFormat)
	}
	if len(raw.Records) == 0 || string(raw.Records) == "null" {
		return nil, fmt.Errorf("%w: records field is missing", ErrBadFormat)
	}
	var entries []map[string]any
	if err := json.Unmarshal(raw.Records, &entries); err != nil {
		return nil, fmt.Errorf("%w: records is not a sequence", ErrBadFormat)
	}
	if raw.AppName != "" && raw.AppName != AppName {
		return nil, fmt.Errorf("%w: %q", ErrWrongApp, raw.AppName)
	}

	report = &ImportReport{Total: len(entries)}

	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		existing, err := ctx.Records.List(ctx.Context())
		if err != nil {
			return err
		}
		seen := lo.SliceToMap(existing, func(r *measurement.Record) (string, struct{}) {
			return r.RecordID, struct{}{}
		})

		for _, entry := range entries {
			r, ok := recordFromEntry(entry)
			if !ok {
				report.SkippedInvalid++
				continue
			}
			if _, dup := seen[r.RecordID]; dup {
				report.SkippedDuplicate++
				continue
			}

			if err := ctx.Records.Add(ctx.Context(), r); err != nil {
				if errors.Is(err, measurement.ErrRecordExists) {
					report.SkippedDuplicate++
					continue
				}
				return err
			}
			seen[r.RecordID] = struct{}{}
			report.Imported++
		}

		if err := s.applySettings(ctx, raw); err != nil {
			return err
		}

		return ctx.Commit()
	})
	if outErr != nil {
		return nil, outErr
	}

	s.logger.Info("import finished",
		"total", report.Total,
		"imported", report.Imported,
		"skipped_duplicate", report.SkippedDuplicate,
		"skipped_invalid", report.SkippedInvalid,
	)
	return report, nil
}

// applySettings overwrites local settings with whatever the document carries.
// Last import wins; there is no merge. A model id outside the catalog and
// out-of-range chart hours are ignored rather than stored.
func (s *Service) applySettings(ctx *AtomicContext, raw rawDocument) error {
	put := func(name, value string) error {
		return ctx.Settings.Put(ctx.Context(), name, value)
	}

	if raw.Profile != nil {
		if err := put(settings.KeyProfileBirthday, raw.Profile.Birthday); err != nil {
			return err
		}
		if err := put(settings.KeyProfileGender, raw.Profile.Gender); err != nil {
			return err
		}
		if err := put(settings.KeyProfileHeight, raw.Profile.Height); err != nil {
			return err
		}
	}

	if raw.AIMemo != nil {
		if err := put(settings.KeyAIMemo, *raw.AIMemo); err != nil {
			return err
		}
	}

	if raw.AIModel != nil {
		if settings.KnownModel(*raw.AIModel) {
			if err := put(settings.KeyAIModel, *raw.AIModel); err != nil {
				return err
			}
		} else {
			s.logger.Warn("ignoring unknown model in import", "model", *raw.AIModel)
		}
	}

	if raw.ChartSettings != nil {
		cs := settings.ChartSettings{
			DayStartHour:   raw.ChartSettings.DayStartHour,
			NightStartHour: raw.ChartSettings.NightStartHour,
		}
		if err := cs.Validate(); err != nil {
			s.logger.Warn("ignoring out-of-range chart hours in import",
				"day", cs.DayStartHour, "night", cs.NightStartHour)
			return nil
		}
		if err := put(settings.KeyChartDayStartHour, strconv.Itoa(cs.DayStartHour)); err != nil {
			return err
		}
		if err := put(settings.KeyChartNightStartHour, strconv.Itoa(cs.NightStartHour)); err != nil {
			return err
		}
	}

	return nil
}

// recordFromEntry coerces one loose document entry into a record. Entries
// without an id, systolic or diastolic value are rejected; numeric fields
// given as strings are coerced; missing timestamps default to now.
func recordFromEntry(entry map[string]any) (*measurement.Record, bool) {
	id, ok := strField(entry, "id")
	if !ok || id == "" {
		return nil, false
	}
	systolic, ok := numField(entry, "systolic")
	if !ok || systolic == 0 {
		return nil, false
	}
	diastolic, ok := numField(entry, "diastolic")
	if !ok || diastolic == 0 {
		return nil, false
	}

	now := time.Now().UTC()
	r := measurement.New(
		id,
		timeField(entry, "measuredAt", now),
		int(systolic), int(diastolic),
		optIntField(entry, "pulse"),
		optFloatField(entry, "weight"),
		optIntField(entry, "mood"),
		optIntField(entry, "condition"),
		optStrField(entry, "memo"),
	)
	r.CreatedAt = timeField(entry, "createdAt", now)
	r.UpdatedAt = timeField(entry, "updatedAt", now)
	return r, true
}

func numField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func strField(m map[string]any, key string) (string, bool) {
	v, ok := m[key].(string)
	return v, ok
}

func optStrField(m map[string]any, key string) *string {
	v, ok := strField(m, key)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func optIntField(m map[string]any, key string) *int {
	f, ok := numField(m, key)
	if !ok {
		return nil
	}
	v := int(f)
	return &v
}

func optFloatField(m map[string]any, key string) *float64 {
	f, ok := numField(m, key)
	if !ok {
		return nil
	}
	return &f
}

func timeField(m map[string]any, key string, fallback time.Time) time.Time {
	raw, ok := strField(m, key)
	if !ok || raw == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fallback
	}
	return t
}
