package measurementservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage"
	measurementstorage "github.com/sbpr-app/sbpr_backend/internal/adapter/storage/measurements"
	"github.com/sbpr-app/sbpr_backend/internal/domain"
	"github.com/sbpr-app/sbpr_backend/internal/domain/measurement"
)

type MeasurementStorage interface {
	Add(ctx context.Context, r *measurement.Record) error
	Update(ctx context.Context, r *measurement.Record) error
	GetByID(ctx context.Context, recordID string) (*measurement.Record, error)
	List(ctx context.Context) ([]*measurement.Record, error)
	ListRange(ctx context.Context, from, to time.Time, ascending bool) ([]*measurement.Record, error)
	Delete(ctx context.Context, recordID string) error
	DeleteAll(ctx context.Context) error
	CollectEvents() []domain.Event
	Close() error
}

type AtomicContext struct {
	ctx                context.Context
	db                 storage.DBContext
	MeasurementStorage MeasurementStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.MeasurementStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.MeasurementStorage.CollectEvents()
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:                ctx,
		db:                 dbContext,
		MeasurementStorage: measurementstorage.NewSQLiteStorage(dbContext),
	}, nil
}
