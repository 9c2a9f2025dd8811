package settingsservice

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/sbpr-app/sbpr_backend/internal/app/unitofwork"
	"github.com/sbpr-app/sbpr_backend/internal/domain/settings"
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Bundle is the full ancillary settings view. The credential itself is never
// read back, only whether one is stored.
type Bundle struct {
	Profile   settings.Profile
	AIMemo    string
	AIModel   string
	Chart     settings.ChartSettings
	APIKeySet bool
}

// Patch carries the groups a caller wants to overwrite; nil groups are left
// untouched.
type Patch struct {
	Profile *settings.Profile
	AIMemo  *string
	AIModel *string
	Chart   *settings.ChartSettings
	APIKey  *string
}

func (s *Service) GetSettings(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
) (b *Bundle, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		values, err := ctx.SettingsStorage.GetAll(ctx.Context())
		if err != nil {
			return err
		}
		b = bundleFromValues(values)
		return ctx.Commit()
	})
	return
}

func (s *Service) UpdateSettings(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	patch Patch,
) error {
	if patch.AIModel != nil && !settings.KnownModel(*patch.AIModel) {
		return settings.ErrUnknownModel
	}
	if patch.Chart != nil {
		if err := patch.Chart.Validate(); err != nil {
			return err
		}
	}

	return uow.Atomic(ctx, func(ctx *AtomicContext) error {
		for name, value := range patch.values() {
			if err := ctx.SettingsStorage.Put(ctx.Context(), name, value); err != nil {
				return err
			}
		}
		return ctx.Commit()
	})
}

// GetAPIKey returns the stored relay credential, empty when unset.
func (s *Service) GetAPIKey(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
) (key string, outErr error) {
	outErr = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		if key, _, err = ctx.SettingsStorage.Get(ctx.Context(), settings.KeyAIAPIKey); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

func (p Patch) values() map[string]string {
	values := make(map[string]string)
	if p.Profile != nil {
		values[settings.KeyProfileBirthday] = p.Profile.Birthday
		values[settings.KeyProfileGender] = p.Profile.Gender
		values[settings.KeyProfileHeight] = p.Profile.Height
	}
	if p.AIMemo != nil {
		values[settings.KeyAIMemo] = *p.AIMemo
	}
	if p.AIModel != nil {
		values[settings.KeyAIModel] = *p.AIModel
	}
	if p.Chart != nil {
		values[settings.KeyChartDayStartHour] = strconv.Itoa(p.Chart.DayStartHour)
		values[settings.KeyChartNightStartHour] = strconv.Itoa(p.Chart.NightStartHour)
	}
	if p.APIKey != nil {
		values[settings.KeyAIAPIKey] = *p.APIKey
	}
	return values
}

func bundleFromValues(values map[string]string) *Bundle {
	b := &Bundle{
		Profile: settings.Profile{
			Birthday: values[settings.KeyProfileBirthday],
			Gender:   values[settings.KeyProfileGender],
			Height:   values[settings.KeyProfileHeight],
		},
		AIMemo:  values[settings.KeyAIMemo],
		AIModel: values[settings.KeyAIModel],
		Chart: settings.ChartSettings{
			DayStartHour:   hourOrDefault(values[settings.KeyChartDayStartHour], settings.DefaultDayStartHour),
			NightStartHour: hourOrDefault(values[settings.KeyChartNightStartHour], settings.DefaultNightStartHour),
		},
		APIKeySet: values[settings.KeyAIAPIKey] != "",
	}
	if b.AIModel == "" {
		b.AIModel = settings.DefaultModel()
	}
	return b
}

func hourOrDefault(raw string, fallback int) int {
	h, err := strconv.Atoi(raw)
	if err != nil || h < 0 || h > 23 {
		return fallback
	}
	return h
}
