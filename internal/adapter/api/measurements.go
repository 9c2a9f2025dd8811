package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	measurementservice "github.com/sbpr-app/sbpr_backend/internal/app/measurement"
	"github.com/sbpr-app/sbpr_backend/internal/app/unitofwork"
	"github.com/sbpr-app/sbpr_backend/internal/domain/measurement"
)

func (s *Server) MountRecords() {
	s.handler.POST("/records", s.CreateRecord)
	s.handler.GET("/records", s.ListRecords)
	s.handler.DELETE("/records", s.DeleteAllRecords)
	s.handler.GET("/records/stats", s.RecordStats)
	s.handler.GET("/records/:record_id", s.GetRecord)
	s.handler.PUT("/records/:record_id", s.UpdateRecord)
	s.handler.DELETE("/records/:record_id", s.DeleteRecord)
}

func (s *Server) getRecordsUoW() *unitofwork.UnitOfWork[*measurementservice.AtomicContext] {
	return unitofwork.New[*measurementservice.AtomicContext](
		s.db,
		measurementservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

// Record is the wire form of a measurement, classification included.
type Record struct {
	ID                string     `json:"id"`
	MeasuredAt        time.Time  `json:"measured_at"`
	Systolic          int        `json:"systolic"`
	Diastolic         int        `json:"diastolic"`
	Pulse             *int       `json:"pulse,omitempty"`
	Weight            *float64   `json:"weight,omitempty"`
	Mood              *int       `json:"mood,omitempty"`
	Condition         *int       `json:"condition,omitempty"`
	Memo              *string    `json:"memo,omitempty"`
	Classification    string     `json:"classification"`
	ClassificationTag string     `json:"classification_tag"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func newRecordModel(r *measurement.Record) Record {
	grade := r.Grade()
	return Record{
		ID:                r.RecordID,
		MeasuredAt:        r.MeasuredAt,
		Systolic:          r.Systolic,
		Diastolic:         r.Diastolic,
		Pulse:             r.Pulse,
		Weight:            r.Weight,
		Mood:              r.Mood,
		Condition:         r.Condition,
		Memo:              r.Memo,
		Classification:    grade.String(),
		ClassificationTag: grade.StyleTag(),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type RecordInput struct {
	MeasuredAt *time.Time `json:"measured_at,omitempty"`
	Systolic   *int       `json:"systolic,omitempty"`
	Diastolic  *int       `json:"diastolic,omitempty"`
	Pulse      *int       `json:"pulse,omitempty"`
	Weight     *float64   `json:"weight,omitempty"`
	Mood       *int       `json:"mood,omitempty"`
	Condition  *int       `json:"condition,omitempty"`
	Memo       *string    `json:"memo,omitempty"`
}

func (in RecordInput) serviceInput() measurementservice.Input {
	return measurementservice.Input{
		MeasuredAt: in.MeasuredAt,
		Systolic:   in.Systolic,
		Diastolic:  in.Diastolic,
		Pulse:      in.Pulse,
		Weight:     in.Weight,
		Mood:       in.Mood,
		Condition:  in.Condition,
		Memo:       in.Memo,
	}
}

func (s *Server) CreateRecord(c echo.Context) error {
	var req RecordInput
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	uow := s.getRecordsUoW()
	ctx := c.Request().Context()

	r, err := s.measurementService.CreateRecord(ctx, uow, req.serviceInput())
	if err != nil {
		return recordError(c, err)
	}

	return c.JSON(http.StatusCreated, newRecordModel(r))
}

type UpdateRecordRequest struct {
	RecordID string `param:"record_id" validate:"required"`
	RecordInput
}

func (s *Server) UpdateRecord(c echo.Context) error {
	var req UpdateRecordRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	uow := s.getRecordsUoW()
	ctx := c.Request().Context()

	r, err := s.measurementService.UpdateRecord(ctx, uow, req.RecordID, req.serviceInput())
	if err != nil {
		return recordError(c, err)
	}

	return c.JSON(http.StatusOK, newRecordModel(r))
}

type GetRecordRequest struct {
	RecordID string `param:"record_id" validate:"required"`
}

func (s *Server) GetRecord(c echo.Context) error {
	var req GetRecordRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	uow := s.getRecordsUoW()

	r, err := s.measurementService.GetRecord(c.Request().Context(), uow, req.RecordID)
	if err != nil {
		return recordError(c, err)
	}

	return c.JSON(http.StatusOK, newRecordModel(r))
}

type ListRecordsRequest struct {
	From  string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To    string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Order string `query:"order" validate:"omitempty,oneof=asc desc"`
}

type ListRecordsResponse struct {
	Records []Record `json:"records"`
}

func (s *Server) ListRecords(c echo.Context) error {
	var req ListRecordsRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	uow := s.getRecordsUoW()
	ctx := c.Request().Context()

	var (
		lst []*measurement.Record
		err error
	)
	if req.From == "" && req.To == "" && req.Order == "" {
		lst, err = s.measurementService.ListRecords(ctx, uow)
	} else {
		from, to := dateBounds(req.From, req.To)
		lst, err = s.measurementService.ListRecordsRange(ctx, uow, from, to, req.Order == "asc")
	}
	if err != nil {
		return recordError(c, err)
	}

	return c.JSON(http.StatusOK, ListRecordsResponse{
		Records: lo.Map(lst, func(r *measurement.Record, _ int) Record {
			return newRecordModel(r)
		}),
	})
}

type RecordStatsRequest struct {
	From string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

type AveragesModel struct {
	Systolic  float64  `json:"systolic"`
	Diastolic float64  `json:"diastolic"`
	Pulse     *float64 `json:"pulse,omitempty"`
}

type ExtremesModel struct {
	MaxSystolic  int  `json:"max_systolic"`
	MinSystolic  int  `json:"min_systolic"`
	MaxDiastolic int  `json:"max_diastolic"`
	MinDiastolic int  `json:"min_diastolic"`
	MaxPulse     *int `json:"max_pulse,omitempty"`
	MinPulse     *int `json:"min_pulse,omitempty"`
}

type RecordStatsResponse struct {
	Count    int            `json:"count"`
	Averages *AveragesModel `json:"averages"`
	Extremes *ExtremesModel `json:"extremes"`
}

func (s *Server) RecordStats(c echo.Context) error {
	var req RecordStatsRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	uow := s.getRecordsUoW()
	from, to := dateBounds(req.From, req.To)

	report, err := s.measurementService.Stats(c.Request().Context(), uow, from, to)
	if err != nil {
		return recordError(c, err)
	}

	resp := RecordStatsResponse{Count: report.Count}
	if report.Averages != nil {
		resp.Averages = &AveragesModel{
			Systolic:  report.Averages.Systolic,
			Diastolic: report.Averages.Diastolic,
			Pulse:     report.Averages.Pulse,
		}
	}
	if report.Extremes != nil {
		resp.Extremes = &ExtremesModel{
			MaxSystolic:  report.Extremes.MaxSystolic,
			MinSystolic:  report.Extremes.MinSystolic,
			MaxDiastolic: report.Extremes.MaxDiastolic,
			MinDiastolic: report.Extremes.MinDiastolic,
			MaxPulse:     report.Extremes.MaxPulse,
			MinPulse:     report.Extremes.MinPulse,
		}
	}

	return c.JSON(http.StatusOK, resp)
}

type DeleteRecordRequest struct {
	RecordID string `param:"record_id" validate:"required"`
}

func (s *Server) DeleteRecord(c echo.Context) error {
	var req DeleteRecordRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	uow := s.getRecordsUoW()
	if err := s.measurementService.DeleteRecord(c.Request().Context(), uow, req.RecordID); err != nil {
		return recordError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) DeleteAllRecords(c echo.Context) error {
	uow := s.getRecordsUoW()
	if err := s.measurementService.DeleteAllRecords(c.Request().Context(), uow); err != nil {
		return recordError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// recordError maps service failures onto responses: validation problems and
// duplicate ids are the caller's fault, absence is 404, anything else is a
// generic persistence failure that leaves state for a manual retry.
func recordError(c echo.Context, err error) error {
	var vErr *measurement.ValidationError
	switch {
	case errors.As(err, &vErr):
		return JsonError(c, http.StatusBadRequest, vErr.Messages[0])
	case errors.Is(err, measurement.ErrRecordExists):
		return JsonError(c, http.StatusBadRequest, err)
	case errors.Is(err, measurement.ErrRecordNotFound):
		return JsonError(c, http.StatusNotFound, err)
	default:
		return JsonError(c, http.StatusInternalServerError, "internal error")
	}
}

// dateBounds parses yyyy-mm-dd bounds; the "to" day is included whole.
func dateBounds(from, to string) (time.Time, time.Time) {
	var fromT, toT time.Time
	if from != "" {
		fromT, _ = time.Parse("2006-01-02", from)
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err == nil {
			toT = t.AddDate(0, 0, 1).Add(-time.Millisecond)
		}
	}
	return fromT, toT
}
