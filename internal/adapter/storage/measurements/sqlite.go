package measurementstorage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage/sqlutil"
	"github.com/sbpr-app/sbpr_backend/internal/domain"
	"github.com/sbpr-app/sbpr_backend/internal/domain/measurement"
)

// timeLayout is fixed-width so that lexicographic ordering of the stored text
// matches chronological ordering. All values are stored in UTC.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type SQLiteStorage struct {
	base *sqlutil.BaseStorage
}

func NewSQLiteStorage(db storage.DBContext) *SQLiteStorage {
	return &SQLiteStorage{
		base: sqlutil.NewBaseStorage(db),
	}
}

// recordRow mirrors the bp_records columns. The diff tags let changelogs feed
// straight into SET clauses on update.
type recordRow struct {
	RecordID   string   `diff:"record_id"`
	MeasuredAt string   `diff:"measured_at"`
	Systolic   int      `diff:"systolic"`
	Diastolic  int      `diff:"diastolic"`
	Pulse      *int     `diff:"pulse"`
	Weight     *float64 `diff:"weight"`
	Mood       *int     `diff:"mood"`
	Condition  *int     `diff:"condition"`
	Memo       *string  `diff:"memo"`
	CreatedAt  string   `diff:"created_at"`
	UpdatedAt  string   `diff:"updated_at"`
}

func newRecordRow(r *measurement.Record) recordRow {
	return recordRow{
		RecordID:   r.RecordID,
		MeasuredAt: r.MeasuredAt.UTC().Format(timeLayout),
		Systolic:   r.Systolic,
		Diastolic:  r.Diastolic,
		Pulse:      r.Pulse,
		Weight:     r.Weight,
		Mood:       r.Mood,
		Condition:  r.Condition,
		Memo:       r.Memo,
		CreatedAt:  r.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:  r.UpdatedAt.UTC().Format(timeLayout),
	}
}

func (s *SQLiteStorage) Add(ctx context.Context, r *measurement.Record) error {
	row := newRecordRow(r)
	q := sqlf.InsertInto("bp_records").
		Set("record_id", row.RecordID).
		Set("measured_at", row.MeasuredAt).
		Set("systolic", row.Systolic).
		Set("diastolic", row.Diastolic).
		Set("pulse", row.Pulse).
		Set("weight", row.Weight).
		Set("mood", row.Mood).
		Set("condition", row.Condition).
		Set("memo", row.Memo).
		Set("created_at", row.CreatedAt).
		Set("updated_at", row.UpdatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if sqlutil.ViolatesUnique(err) {
			return measurement.ErrRecordExists
		}
		return err
	}

	s.base.MarkSeen(r)
	return nil
}

// Update replaces the stored row field by field. An absent id falls through
// to an insert, which gives the operation its upsert semantics.
func (s *SQLiteStorage) Update(ctx context.Context, r *measurement.Record) error {
	current, err := s.GetByID(ctx, r.RecordID)
	if err != nil {
		if errors.Is(err, measurement.ErrRecordNotFound) {
			return s.Add(ctx, r)
		}
		return err
	}

	changes, err := diff.Diff(newRecordRow(current), newRecordRow(r))
	if err != nil {
		return storage.InternalError(err)
	}
	if len(changes) == 0 {
		return nil
	}

	q := sqlutil.MakeUpdateQuery(sqlf.Update("bp_records"), changes).
		Where("record_id = ?", r.RecordID)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	return sqlutil.AssertUpdated(res, err, measurement.ErrRecordNotFound)
}

func (s *SQLiteStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt),
) ([]*measurement.Record, error) {
	var tmp struct {
		RecordID   string
		MeasuredAt string
		Systolic   int
		Diastolic  int
		Pulse      sql.NullInt64
		Weight     sql.NullFloat64
		Mood       sql.NullInt64
		Condition  sql.NullInt64
		Memo       sql.NullString
		CreatedAt  string
		UpdatedAt  string
	}

	q := sqlf.From("bp_records r").
		Select("r.record_id").To(&tmp.RecordID).
		Select("r.measured_at").To(&tmp.MeasuredAt).
		Select("r.systolic").To(&tmp.Systolic).
		Select("r.diastolic").To(&tmp.Diastolic).
		Select("r.pulse").To(&tmp.Pulse).
		Select("r.weight").To(&tmp.Weight).
		Select("r.mood").To(&tmp.Mood).
		Select("r.condition").To(&tmp.Condition).
		Select("r.memo").To(&tmp.Memo).
		Select("r.created_at").To(&tmp.CreatedAt).
		Select("r.updated_at").To(&tmp.UpdatedAt)

	modify(q)

	var result []*measurement.Record
	var convErr error

	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		if convErr != nil {
			return
		}

		measuredAt, err := time.Parse(time.RFC3339Nano, tmp.MeasuredAt)
		if err != nil {
			convErr = err
			return
		}
		createdAt, err := time.Parse(time.RFC3339Nano, tmp.CreatedAt)
		if err != nil {
			convErr = err
			return
		}
		updatedAt, err := time.Parse(time.RFC3339Nano, tmp.UpdatedAt)
		if err != nil {
			convErr = err
			return
		}

		r := &measurement.Record{
			RecordID:   tmp.RecordID,
			MeasuredAt: measuredAt,
			Systolic:   tmp.Systolic,
			Diastolic:  tmp.Diastolic,
			CreatedAt:  createdAt,
			UpdatedAt:  updatedAt,
		}
		if tmp.Pulse.Valid {
			v := int(tmp.Pulse.Int64)
			r.Pulse = &v
		}
		if tmp.Weight.Valid {
			v := tmp.Weight.Float64
			r.Weight = &v
		}
		if tmp.Mood.Valid {
			v := int(tmp.Mood.Int64)
			r.Mood = &v
		}
		if tmp.Condition.Valid {
			v := int(tmp.Condition.Int64)
			r.Condition = &v
		}
		if tmp.Memo.Valid {
			v := tmp.Memo.String
			r.Memo = &v
		}
		result = append(result, r)
	})

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if convErr != nil {
		return nil, storage.InternalError(convErr)
	}

	return result, nil
}

func (s *SQLiteStorage) GetByID(ctx context.Context, recordID string) (*measurement.Record, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) {
		stmt.Where("r.record_id = ?", recordID)
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, measurement.ErrRecordNotFound
	}
	return result[0], nil
}

// List returns every record, newest measurement first.
func (s *SQLiteStorage) List(ctx context.Context) ([]*measurement.Record, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) {
		stmt.OrderBy("r.measured_at DESC", "r.record_id DESC")
	})
}

// ListRange returns records inside [from, to]. A zero bound is open. The
// ascending flag selects chronological order for charting; descending is the
// list order.
func (s *SQLiteStorage) ListRange(ctx context.Context, from, to time.Time, ascending bool) ([]*measurement.Record, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) {
		if !from.IsZero() {
			stmt.Where("r.measured_at >= ?", from.UTC().Format(timeLayout))
		}
		if !to.IsZero() {
			stmt.Where("r.measured_at <= ?", to.UTC().Format(timeLayout))
		}
		if ascending {
			stmt.OrderBy("r.measured_at ASC", "r.record_id ASC")
		} else {
			stmt.OrderBy("r.measured_at DESC", "r.record_id DESC")
		}
	})
}

// Delete removes one record. Deleting an absent id is a no-op success.
func (s *SQLiteStorage) Delete(ctx context.Context, recordID string) error {
	q := sqlf.DeleteFrom("bp_records").Where("record_id = ?", recordID)
	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStorage) DeleteAll(ctx context.Context) error {
	q := sqlf.DeleteFrom("bp_records")
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
