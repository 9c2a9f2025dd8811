package transferservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage"
	measurementstorage "github.com/sbpr-app/sbpr_backend/internal/adapter/storage/measurements"
	settingsstorage "github.com/sbpr-app/sbpr_backend/internal/adapter/storage/settingsstore"
	"github.com/sbpr-app/sbpr_backend/internal/domain"
	"github.com/sbpr-app/sbpr_backend/internal/domain/measurement"
)

type RecordStorage interface {
	Add(ctx context.Context, r *measurement.Record) error
	List(ctx context.Context) ([]*measurement.Record, error)
	ListRange(ctx context.Context, from, to time.Time, ascending bool) ([]*measurement.Record, error)
	CollectEvents() []domain.Event
	Close() error
}

type SettingsStorage interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, name, value string) error
	CollectEvents() []domain.Event
	Close() error
}

type AtomicContext struct {
	ctx      context.Context
	db       storage.DBContext
	Records  RecordStorage
	Settings SettingsStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.Records.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if closeErr := a.Settings.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return append(a.Records.CollectEvents(), a.Settings.CollectEvents()...)
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:      ctx,
		db:       dbContext,
		Records:  measurementstorage.NewSQLiteStorage(dbContext),
		Settings: settingsstorage.NewSQLiteStorage(dbContext),
	}, nil
}
