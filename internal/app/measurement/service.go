package measurementservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sbpr-app/sbpr_backend/internal/app/unitofwork"
	"github.com/sbpr-app/sbpr_backend/internal/domain/measurement"
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Input is what the save/edit flow submits before validation.
type Input struct {
	MeasuredAt *time.Time
	Systolic   *int
	Diastolic  *int
	Pulse      *int
	Weight     *float64
	Mood       *int
	Condition  *int
	Memo       *string
}

func (in Input) candidate() measurement.Input {
	return measurement.Input{
		Systolic:  in.Systolic,
		Diastolic: in.Diastolic,
		Pulse:     in.Pulse,
		Weight:    in.Weight,
		Mood:      in.Mood,
		Condition: in.Condition,
	}
}

// CreateRecord validates the input, and only on success persists a new record
// under a freshly generated id. An invalid candidate never reaches the store.
func (s *Service) CreateRecord(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	in Input,
) (r *measurement.Record, outErr error) {
	if res := measurement.Validate(in.candidate()); !res.Valid {
		return nil, &measurement.ValidationError{Messages: res.Errors}
	}

	measuredAt := time.Now().UTC()
	if in.MeasuredAt != nil {
		measuredAt = *in.MeasuredAt
	}

	r = measurement.New(
		uuid.NewString(),
		measuredAt,
		*in.Systolic, *in.Diastolic,
		in.Pulse, in.Weight, in.Mood, in.Condition, in.Memo,
	)
	r.PushEvent(measurement.Recorded{RecordID: r.RecordID, At: time.Now().UTC()})

	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if err := ctx.MeasurementStorage.Add(ctx.Context(), r); err != nil {
			return err
		}
		return ctx.Commit()
	})
	if outErr != nil {
		return nil, outErr
	}
	return r, nil
}

// UpdateRecord replaces the mutable fields of a record. The id and createdAt
// of an existing record are preserved and updatedAt is refreshed. An unknown
// id is created instead (upsert, matching the store's put semantics).
func (s *Service) UpdateRecord(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	recordID string,
	in Input,
) (r *measurement.Record, outErr error) {
	if res := measurement.Validate(in.candidate()); !res.Valid {
		return nil, &measurement.ValidationError{Messages: res.Errors}
	}

	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		measuredAt := time.Now().UTC()
		if in.MeasuredAt != nil {
			measuredAt = *in.MeasuredAt
		}

		r = measurement.New(
			recordID,
			measuredAt,
			*in.Systolic, *in.Diastolic,
			in.Pulse, in.Weight, in.Mood, in.Condition, in.Memo,
		)

		current, err := ctx.MeasurementStorage.GetByID(ctx.Context(), recordID)
		switch {
		case err == nil:
			r.CreatedAt = current.CreatedAt
			if in.MeasuredAt == nil {
				r.MeasuredAt = current.MeasuredAt
			}
		case errors.Is(err, measurement.ErrRecordNotFound):
			// upsert: the edit becomes a creation
		default:
			return err
		}

		if err := ctx.MeasurementStorage.Update(ctx.Context(), r); err != nil {
			return err
		}
		return ctx.Commit()
	})
	if outErr != nil {
		return nil, outErr
	}
	return r, nil
}

func (s *Service) GetRecord(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	recordID string,
) (r *measurement.Record, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if r, err = ctx.MeasurementStorage.GetByID(ctx.Context(), recordID); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

// ListRecords returns every record, newest measurement first.
func (s *Service) ListRecords(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
) (rs []*measurement.Record, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if rs, err = ctx.MeasurementStorage.List(ctx.Context()); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

// ListRecordsRange returns records inside the given bounds, chronological when
// ascending is set (chart mode), newest first otherwise.
func (s *Service) ListRecordsRange(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	from, to time.Time,
	ascending bool,
) (rs []*measurement.Record, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if rs, err = ctx.MeasurementStorage.ListRange(ctx.Context(), from, to, ascending); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

type StatsReport struct {
	Count    int
	Averages *measurement.Averages
	Extremes *measurement.Extremes
}

// Stats aggregates the records inside the given bounds.
func (s *Service) Stats(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	from, to time.Time,
) (*StatsReport, error) {
	records, err := s.ListRecordsRange(ctx, uow, from, to, true)
	if err != nil {
		return nil, err
	}
	return &StatsReport{
		Count:    len(records),
		Averages: measurement.Average(records),
		Extremes: measurement.MinMax(records),
	}, nil
}

// DeleteRecord removes one record; an unknown id is a no-op success.
func (s *Service) DeleteRecord(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	recordID string,
) error {
	return uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if err := ctx.MeasurementStorage.Delete(ctx.Context(), recordID); err != nil {
			return err
		}
		return ctx.Commit()
	})
}

func (s *Service) DeleteAllRecords(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
) error {
	return uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if err := ctx.MeasurementStorage.DeleteAll(ctx.Context()); err != nil {
			return err
		}
		return ctx.Commit()
	})
}
