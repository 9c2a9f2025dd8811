package settingsservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage"
	settingsstorage "github.com/sbpr-app/sbpr_backend/internal/adapter/storage/settingsstore"
	"github.com/sbpr-app/sbpr_backend/internal/domain"
)

type SettingsStorage interface {
	Get(ctx context.Context, name string) (string, bool, error)
	GetAll(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, name, value string) error
	CollectEvents() []domain.Event
	Close() error
}

type AtomicContext struct {
	ctx             context.Context
	db              storage.DBContext
	SettingsStorage SettingsStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.SettingsStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.SettingsStorage.CollectEvents()
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:             ctx,
		db:              dbContext,
		SettingsStorage: settingsstorage.NewSQLiteStorage(dbContext),
	}, nil
}
