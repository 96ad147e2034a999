package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_Advance(t *testing.T) {
	c, err := NewClock(YearMonth{1997, 11}, YearMonth{1998, 3}, 1)
	require.NoError(t, err)

	var seen []string
	for c.InBounds() {
		seen = append(seen, c.Now().String())
		c.Advance()
	}
	assert.Equal(t, []string{"11/1997", "12/1997", "01/1998", "02/1998"}, seen)
	assert.Equal(t, 5, c.Now().Step)
}

func TestClock_IsLast(t *testing.T) {
	c, err := NewClock(YearMonth{2000, 1}, YearMonth{2000, 4}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Steps())

	c.Advance()
	assert.False(t, c.IsLast())
	c.Advance()
	assert.True(t, c.IsLast())
}

func TestClock_T0(t *testing.T) {
	c, err := NewClock(YearMonth{1997, 1}, YearMonth{1998, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, YearMonth{1996, 10}, c.T0())
	assert.Equal(t, 4, c.Steps())
}

func TestNewClock_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		start, end YearMonth
		step       int
	}{
		{name: "bad month", start: YearMonth{2000, 13}, end: YearMonth{2001, 1}, step: 1},
		{name: "end before start", start: YearMonth{2001, 1}, end: YearMonth{2000, 1}, step: 1},
		{name: "zero timestep", start: YearMonth{2000, 1}, end: YearMonth{2001, 1}, step: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClock(tt.start, tt.end, tt.step)
			assert.Error(t, err)
		})
	}
}

func TestInstant_Time(t *testing.T) {
	i := Instant{Step: 1, YearMonth: YearMonth{1997, 7}}
	assert.InDelta(t, 1997.5, i.Time(), 1e-9)
}

func TestStepsFor(t *testing.T) {
	assert.Equal(t, 1, StepsFor(0, 1))
	assert.Equal(t, 6, StepsFor(6, 1))
	assert.Equal(t, 2, StepsFor(4, 3))
	assert.Equal(t, 3, StepsFor(6.5, 3))
}

func TestYearMonth_AddMonths(t *testing.T) {
	assert.Equal(t, YearMonth{1999, 12}, YearMonth{2000, 1}.AddMonths(-1))
	assert.Equal(t, YearMonth{2001, 2}, YearMonth{2000, 1}.AddMonths(13))
}
