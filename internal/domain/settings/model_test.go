package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChartSettingsValidate(t *testing.T) {
	assert.NoError(t, ChartSettings{DayStartHour: 0, NightStartHour: 23}.Validate())
	assert.NoError(t, ChartSettings{DayStartHour: DefaultDayStartHour, NightStartHour: DefaultNightStartHour}.Validate())

	assert.ErrorIs(t, ChartSettings{DayStartHour: -1, NightStartHour: 22}.Validate(), ErrInvalidHour)
	assert.ErrorIs(t, ChartSettings{DayStartHour: 6, NightStartHour: 24}.Validate(), ErrInvalidHour)
}

func TestModelCatalog(t *testing.T) {
	assert.True(t, KnownModel(DefaultModel()))
	assert.True(t, KnownModel("gpt-4o"))
	assert.False(t, KnownModel("gpt-99-ultra"))
	assert.False(t, KnownModel(""))

	assert.Equal(t, "GPT-4o", ModelLabel("gpt-4o"))
	assert.Empty(t, ModelLabel("gpt-99-ultra"))
}
