package report

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDay_UsesBusinessTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	// 01:30 UTC ainda é o dia anterior em São Paulo
	instant := time.Date(2024, 3, 10, 1, 30, 0, 0, time.UTC)
	day := StartOfDay(instant, loc)

	assert.Equal(t, 9, day.Day())
	assert.Equal(t, 0, day.Hour())
	assert.Equal(t, loc, day.Location())
	assert.True(t, StartOfDay(instant, nil).Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
}

func TestDailyReport_ApplyIsAdditive(t *testing.T) {
	r := &DailyReport{}
	r.Apply(Totals{Revenue: 1000, Profit: 200, Quantity: 2})
	r.Apply(Totals{Revenue: 500, Profit: 100, Quantity: 1})

	assert.EqualValues(t, 1500, r.TotalRevenue)
	assert.EqualValues(t, 300, r.TotalProfit)
	assert.EqualValues(t, 3, r.TotalSalesCount)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, RangeStats{}, Summarize(nil))

	s := Summarize([]*DailyReport{
		{TotalRevenue: 1000, TotalProfit: 100, TotalSalesCount: 4},
		{TotalRevenue: 3000, TotalProfit: 300, TotalSalesCount: 2},
	})
	assert.Equal(t, 2, s.DayCount)
	assert.EqualValues(t, 4000, s.TotalRevenue)
	assert.InDelta(t, 2000.0, s.AverageDailyRevenue, 0.001)
	assert.InDelta(t, 3.0, s.AverageDailySalesCount, 0.001)
}
