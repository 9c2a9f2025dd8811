package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	settingsservice "github.com/sbpr-app/sbpr_backend/internal/app/settings"
	"github.com/sbpr-app/sbpr_backend/internal/app/unitofwork"
	"github.com/sbpr-app/sbpr_backend/internal/domain/settings"
)

func (s *Server) MountSettings() {
	s.handler.GET("/settings", s.GetSettings)
	s.handler.PUT("/settings", s.UpdateSettings)
}

func (s *Server) getSettingsUoW() *unitofwork.UnitOfWork[*settingsservice.AtomicContext] {
	return unitofwork.New[*settingsservice.AtomicContext](
		s.db,
		settingsservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

type ProfileModel struct {
	Birthday string `json:"birthday"`
	Gender   string `json:"gender"`
	Height   string `json:"height"`
}

type ChartSettingsModel struct {
	DayStartHour   int `json:"day_start_hour" validate:"min=0,max=23"`
	NightStartHour int `json:"night_start_hour" validate:"min=0,max=23"`
}

type GetSettingsResponse struct {
	Profile   ProfileModel       `json:"profile"`
	AIMemo    string             `json:"ai_memo"`
	AIModel   string             `json:"ai_model"`
	Chart     ChartSettingsModel `json:"chart"`
	APIKeySet bool               `json:"api_key_set"`
}

func (s *Server) GetSettings(c echo.Context) error {
	uow := s.getSettingsUoW()

	b, err := s.settingsService.GetSettings(c.Request().Context(), uow)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, GetSettingsResponse{
		Profile: ProfileModel{
			Birthday: b.Profile.Birthday,
			Gender:   b.Profile.Gender,
			Height:   b.Profile.Height,
		},
		AIMemo:  b.AIMemo,
		AIModel: b.AIModel,
		Chart: ChartSettingsModel{
			DayStartHour:   b.Chart.DayStartHour,
			NightStartHour: b.Chart.NightStartHour,
		},
		APIKeySet: b.APIKeySet,
	})
}

// UpdateSettingsRequest carries only the groups the caller wants replaced.
// The api_key is write-only: it can be set here but is never read back.
type UpdateSettingsRequest struct {
	Profile *ProfileModel       `json:"profile,omitempty"`
	AIMemo  *string             `json:"ai_memo,omitempty"`
	AIModel *string             `json:"ai_model,omitempty"`
	Chart   *ChartSettingsModel `json:"chart,omitempty"`
	APIKey  *string             `json:"api_key,omitempty"`
}

func (s *Server) UpdateSettings(c echo.Context) error {
	var req UpdateSettingsRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	patch := settingsservice.Patch{
		AIMemo:  req.AIMemo,
		AIModel: req.AIModel,
		APIKey:  req.APIKey,
	}
	if req.Profile != nil {
		patch.Profile = &settings.Profile{
			Birthday: req.Profile.Birthday,
			Gender:   req.Profile.Gender,
			Height:   req.Profile.Height,
		}
	}
	if req.Chart != nil {
		patch.Chart = &settings.ChartSettings{
			DayStartHour:   req.Chart.DayStartHour,
			NightStartHour: req.Chart.NightStartHour,
		}
	}

	uow := s.getSettingsUoW()
	if err := s.settingsService.UpdateSettings(c.Request().Context(), uow, patch); err != nil {
		if errors.Is(err, settings.ErrUnknownModel) || errors.Is(err, settings.ErrInvalidHour) {
			return JsonError(c, http.StatusBadRequest, err)
		}
		return JsonError(c, http.StatusInternalServerError, "internal error")
	}

	return c.NoContent(http.StatusNoContent)
}
