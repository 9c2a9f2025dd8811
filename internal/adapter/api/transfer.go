package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	transferservice "github.com/sbpr-app/sbpr_backend/internal/app/transfer"
	"github.com/sbpr-app/sbpr_backend/internal/app/unitofwork"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) MountTransfer() {
	s.handler.GET("/export", s.ExportData)
	s.handler.GET("/export.xlsx", s.ExportWorkbook)
	s.handler.POST("/import", s.ImportData)
}

func (s *Server) getTransferUoW() *unitofwork.UnitOfWork[*transferservice.AtomicContext] {
	return unitofwork.New[*transferservice.AtomicContext](
		s.db,
		transferservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

func (s *Server) ExportData(c echo.Context) error {
	uow := s.getTransferUoW()

	doc, err := s.transferService.Export(c.Request().Context(), uow)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, "internal error")
	}

	filename := transferservice.ExportFilename(time.Now(), "json")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) ExportWorkbook(c echo.Context) error {
	uow := s.getTransferUoW()

	f, err := s.transferService.ExportWorkbook(c.Request().Context(), uow)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, "internal error")
	}
	defer func() {
		_ = f.Close()
	}()

	filename := transferservice.ExportFilename(time.Now(), "xlsx")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().WriteHeader(http.StatusOK)

	if _, err := f.WriteTo(c.Response()); err != nil {
		return err
	}
	return nil
}

type ImportResponse struct {
	Total            int `json:"total"`
	Imported         int `json:"imported"`
	SkippedDuplicate int `json:"skipped_duplicate"`
	SkippedInvalid   int `json:"skipped_invalid"`
}

func (s *Server) ImportData(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return JsonError(c, http.StatusBadRequest, "bad request")
	}

	uow := s.getTransferUoW()

	report, err := s.transferService.Import(c.Request().Context(), uow, data)
	if err != nil {
		if errors.Is(err, transferservice.ErrBadFormat) || errors.Is(err, transferservice.ErrWrongApp) {
			return JsonError(c, http.StatusBadRequest, err)
		}
		return JsonError(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, ImportResponse{
		Total:            report.Total,
		Imported:         report.Imported,
		SkippedDuplicate: report.SkippedDuplicate,
		SkippedInvalid:   report.SkippedInvalid,
	})
}
