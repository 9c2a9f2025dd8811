package measurement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(systolic, diastolic int, pulse *int) *Record {
	return New("", time.Now(), systolic, diastolic, pulse, nil, nil, nil, nil)
}

func TestAverage(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, Average(nil))
		assert.Nil(t, Average([]*Record{}))
	})

	t.Run("rounds to one decimal", func(t *testing.T) {
		avg := Average([]*Record{
			reading(120, 80, nil),
			reading(130, 85, nil),
		})
		require.NotNil(t, avg)
		assert.Equal(t, 125.0, avg.Systolic)
		assert.Equal(t, 82.5, avg.Diastolic)
		assert.Nil(t, avg.Pulse)
	})

	t.Run("half rounds away from zero", func(t *testing.T) {
		// 368/3 = 122.66..., 245/3 = 81.66...
		avg := Average([]*Record{
			reading(122, 81, nil),
			reading(123, 82, nil),
			reading(123, 82, nil),
		})
		require.NotNil(t, avg)
		assert.Equal(t, 122.7, avg.Systolic)
		assert.Equal(t, 81.7, avg.Diastolic)
	})

	t.Run("pulse averaged over carrying records only", func(t *testing.T) {
		avg := Average([]*Record{
			reading(120, 80, intp(60)),
			reading(120, 80, nil),
			reading(120, 80, intp(71)),
		})
		require.NotNil(t, avg)
		require.NotNil(t, avg.Pulse)
		assert.Equal(t, 65.5, *avg.Pulse)
	})
}

func TestMinMax(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, MinMax(nil))
	})

	t.Run("single record", func(t *testing.T) {
		e := MinMax([]*Record{reading(120, 80, intp(65))})
		require.NotNil(t, e)
		assert.Equal(t, 120, e.MaxSystolic)
		assert.Equal(t, 120, e.MinSystolic)
		assert.Equal(t, 80, e.MaxDiastolic)
		assert.Equal(t, 80, e.MinDiastolic)
		require.NotNil(t, e.MaxPulse)
		assert.Equal(t, 65, *e.MaxPulse)
		assert.Equal(t, 65, *e.MinPulse)
	})

	t.Run("extrema over mixed set", func(t *testing.T) {
		e := MinMax([]*Record{
			reading(142, 95, nil),
			reading(118, 72, intp(58)),
			reading(131, 88, intp(80)),
		})
		require.NotNil(t, e)
		assert.Equal(t, 142, e.MaxSystolic)
		assert.Equal(t, 118, e.MinSystolic)
		assert.Equal(t, 95, e.MaxDiastolic)
		assert.Equal(t, 72, e.MinDiastolic)
		require.NotNil(t, e.MaxPulse)
		assert.Equal(t, 80, *e.MaxPulse)
		assert.Equal(t, 58, *e.MinPulse)
	})

	t.Run("no pulse anywhere", func(t *testing.T) {
		e := MinMax([]*Record{reading(120, 80, nil), reading(130, 85, nil)})
		require.NotNil(t, e)
		assert.Nil(t, e.MaxPulse)
		assert.Nil(t, e.MinPulse)
	})
}
