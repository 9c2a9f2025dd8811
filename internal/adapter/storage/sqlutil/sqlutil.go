package sqlutil

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage"
	"github.com/sbpr-app/sbpr_backend/internal/domain"
	"github.com/sbpr-app/sbpr_backend/internal/domain/measurement"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// BaseStorage carries the shared DB handle and tracks records touched inside
// the current unit of work so their events can be collected after commit.
type BaseStorage struct {
	DB     storage.DBContext
	seenMu sync.Mutex
	seen   map[string]*measurement.Record
}

func NewBaseStorage(db storage.DBContext) *BaseStorage {
	return &BaseStorage{
		DB:   db,
		seen: make(map[string]*measurement.Record),
	}
}

func (s *BaseStorage) CollectEvents() []domain.Event {
	var events []domain.Event
	s.seenMu.Lock()
	for _, r := range s.seen {
		events = append(events, r.PopEvents()...)
	}
	s.seenMu.Unlock()
	s.clearSeen()
	return events
}

func (s *BaseStorage) Close() {
	s.clearSeen()
}

func (s *BaseStorage) MarkSeen(r *measurement.Record) {
	s.seenMu.Lock()
	s.seen[r.RecordID] = r
	s.seenMu.Unlock()
}

func (s *BaseStorage) clearSeen() {
	s.seenMu.Lock()
	s.seen = make(map[string]*measurement.Record)
	s.seenMu.Unlock()
}

// ViolatesUnique reports whether err is an SQLite primary-key or unique
// constraint violation.
func ViolatesUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}

// MakeUpdateQuery turns a diff changelog into SET clauses. Paths are expected
// to be flat column names produced by diff tags on a row struct.
func MakeUpdateQuery(stmt *sqlf.Stmt, updates diff.Changelog) *sqlf.Stmt {
	for _, upd := range updates {
		if len(upd.Path) > 1 {
			panic("cannot process updates in nested structures")
		}
		stmt = stmt.Set(upd.Path[0], upd.To)
	}
	return stmt
}

func AssertUpdated(res sql.Result, err error, notUpdatedError error) error {
	if err != nil {
		return storage.InternalError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storage.InternalError(err)
	}

	if affected == 0 {
		return notUpdatedError
	}
	return nil
}
