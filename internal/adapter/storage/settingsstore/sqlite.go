package settingsstorage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/leporo/sqlf"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage/sqlutil"
	"github.com/sbpr-app/sbpr_backend/internal/domain"
)

// SQLiteStorage persists the ancillary scalar settings as name/value rows.
type SQLiteStorage struct {
	base *sqlutil.BaseStorage
}

func NewSQLiteStorage(db storage.DBContext) *SQLiteStorage {
	return &SQLiteStorage{
		base: sqlutil.NewBaseStorage(db),
	}
}

// Get returns the stored value, or ("", false, nil) when the name is unset.
func (s *SQLiteStorage) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	q := sqlf.From("settings").
		Select("value").To(&value).
		Where("name = ?", name)

	err := q.QueryRowAndClose(ctx, s.base.DB)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStorage) GetAll(ctx context.Context) (map[string]string, error) {
	var tmp struct {
		Name  string
		Value string
	}

	q := sqlf.From("settings").
		Select("name").To(&tmp.Name).
		Select("value").To(&tmp.Value)

	result := make(map[string]string)
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		result[tmp.Name] = tmp.Value
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return result, nil
}

// Put stores a value under a fixed name, overwriting any previous one.
func (s *SQLiteStorage) Put(ctx context.Context, name, value string) error {
	q := sqlf.New(
		"INSERT INTO settings (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value",
		name, value,
	)
	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *SQLiteStorage) Close() error {
	s.base.Close()
	return nil
}
