package measurementservice

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/leporo/sqlf"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage"
	"github.com/sbpr-app/sbpr_backend/internal/app/messagebus"
	"github.com/sbpr-app/sbpr_backend/internal/app/unitofwork"
	"github.com/sbpr-app/sbpr_backend/internal/domain/measurement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	service *Service
	uow     func() *unitofwork.UnitOfWork[*AtomicContext]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sqlf.SetDialect(sqlf.NoDialect)

	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := messagebus.New(logger)
	dbCtx := storage.DB{DB: db}

	return &fixture{
		service: New(logger),
		uow: func() *unitofwork.UnitOfWork[*AtomicContext] {
			return unitofwork.New[*AtomicContext](dbCtx, NewAtomicContext, bus, logger)
		},
	}
}

func intp(v int) *int { return &v }

func TestCreateRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.service.CreateRecord(ctx, f.uow(), Input{
		Systolic:  intp(125),
		Diastolic: intp(82),
		Pulse:     intp(72),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.RecordID)
	assert.Equal(t, measurement.GradeHighNormal, r.Grade())

	list, err := f.service.ListRecords(ctx, f.uow())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.RecordID, list[0].RecordID)
	assert.Equal(t, 125, list[0].Systolic)
	assert.Equal(t, 82, list[0].Diastolic)
	require.NotNil(t, list[0].Pulse)
	assert.Equal(t, 72, *list[0].Pulse)
}

func TestCreateRecordRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateRecord(ctx, f.uow(), Input{
		Systolic:  intp(80),
		Diastolic: intp(80),
	})

	var vErr *measurement.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.NotEmpty(t, vErr.Messages)

	// nothing may reach the store on a validation failure
	list, err := f.service.ListRecords(ctx, f.uow())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateRecordPreservesIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.service.CreateRecord(ctx, f.uow(), Input{
		Systolic:  intp(125),
		Diastolic: intp(82),
	})
	require.NoError(t, err)

	updated, err := f.service.UpdateRecord(ctx, f.uow(), r.RecordID, Input{
		Systolic:  intp(142),
		Diastolic: intp(94),
	})
	require.NoError(t, err)
	assert.Equal(t, r.RecordID, updated.RecordID)

	got, err := f.service.GetRecord(ctx, f.uow(), r.RecordID)
	require.NoError(t, err)
	assert.Equal(t, 142, got.Systolic)
	assert.Equal(t, 94, got.Diastolic)
	assert.True(t, got.CreatedAt.Equal(r.CreatedAt.Truncate(time.Millisecond)))
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestUpdateRecordUpsertsUnknownID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.service.UpdateRecord(ctx, f.uow(), "never-seen", Input{
		Systolic:  intp(118),
		Diastolic: intp(76),
	})
	require.NoError(t, err)
	assert.Equal(t, "never-seen", r.RecordID)

	got, err := f.service.GetRecord(ctx, f.uow(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, 118, got.Systolic)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for _, in := range []Input{
		{MeasuredAt: &at, Systolic: intp(120), Diastolic: intp(80)},
		{MeasuredAt: &at, Systolic: intp(130), Diastolic: intp(85)},
	} {
		_, err := f.service.CreateRecord(ctx, f.uow(), in)
		require.NoError(t, err)
	}

	report, err := f.service.Stats(ctx, f.uow(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count)
	require.NotNil(t, report.Averages)
	assert.Equal(t, 125.0, report.Averages.Systolic)
	assert.Equal(t, 82.5, report.Averages.Diastolic)
	assert.Nil(t, report.Averages.Pulse)
	require.NotNil(t, report.Extremes)
	assert.Equal(t, 130, report.Extremes.MaxSystolic)
	assert.Equal(t, 120, report.Extremes.MinSystolic)
}

func TestStatsEmptyStore(t *testing.T) {
	f := newFixture(t)

	report, err := f.service.Stats(context.Background(), f.uow(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Count)
	assert.Nil(t, report.Averages)
	assert.Nil(t, report.Extremes)
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.service.CreateRecord(ctx, f.uow(), Input{
		Systolic:  intp(125),
		Diastolic: intp(82),
		Pulse:     intp(72),
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteRecord(ctx, f.uow(), r.RecordID))

	list, err := f.service.ListRecords(ctx, f.uow())
	require.NoError(t, err)
	assert.Empty(t, list)

	// deleting again still succeeds
	require.NoError(t, f.service.DeleteRecord(ctx, f.uow(), r.RecordID))
}

func TestDeleteAllRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.CreateRecord(ctx, f.uow(), Input{
			Systolic:  intp(120 + i),
			Diastolic: intp(80),
		})
		require.NoError(t, err)
	}

	require.NoError(t, f.service.DeleteAllRecords(ctx, f.uow()))

	list, err := f.service.ListRecords(ctx, f.uow())
	require.NoError(t, err)
	assert.Empty(t, list)
}
