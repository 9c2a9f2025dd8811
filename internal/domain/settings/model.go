package settings

import "errors"

var (
	ErrUnknownModel = errors.New("unknown completion model")
	ErrInvalidHour  = errors.New("hour must be between 0 and 23")
)

// Fixed names addressing the ancillary key-value settings. The credential is
// stored under these names too but is never part of an export document.
const (
	KeyProfileBirthday     = "profile.birthday"
	KeyProfileGender       = "profile.gender"
	KeyProfileHeight       = "profile.height"
	KeyAIMemo              = "ai.memo"
	KeyAIModel             = "ai.model"
	KeyAIAPIKey            = "ai.api_key"
	KeyChartDayStartHour   = "chart.day_start_hour"
	KeyChartNightStartHour = "chart.night_start_hour"
)

const (
	DefaultDayStartHour   = 6
	DefaultNightStartHour = 22
)

type Profile struct {
	Birthday string
	Gender   string
	Height   string
}

type ChartSettings struct {
	DayStartHour   int
	NightStartHour int
}

func (c ChartSettings) Validate() error {
	if c.DayStartHour < 0 || c.DayStartHour > 23 || c.NightStartHour < 0 || c.NightStartHour > 23 {
		return ErrInvalidHour
	}
	return nil
}

// modelCatalog lists the completion models the application will address.
// Anything else is rejected rather than forwarded blindly.
var modelCatalog = map[string]string{
	"gpt-4o-mini":  "GPT-4o mini",
	"gpt-4o":       "GPT-4o",
	"gpt-4.1-mini": "GPT-4.1 mini",
	"gpt-4.1":      "GPT-4.1",
}

func KnownModel(id string) bool {
	_, ok := modelCatalog[id]
	return ok
}

func ModelLabel(id string) string {
	return modelCatalog[id]
}

func DefaultModel() string {
	return "gpt-4o-mini"
}
