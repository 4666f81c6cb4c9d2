package models

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreativeFrequencyCap_LimitsPerDay(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC))
	capper := NewCreativeFrequencyCap(0, 2, clk)

	assert.True(t, capper.Allowed("cr"))
	require.NoError(t, capper.Hit("cr"))
	assert.True(t, capper.Allowed("cr"))
	require.NoError(t, capper.Hit("cr"))
	assert.False(t, capper.Allowed("cr"))
	assert.Equal(t, 2, capper.Count("cr"))
	assert.True(t, capper.Allowed("other"))

	clk.Add(2 * time.Hour)
	assert.True(t, capper.Allowed("cr"))
	assert.Equal(t, 0, capper.Count("cr"))
}

func TestCreativeFrequencyCap_Unlimited(t *testing.T) {
	capper := NewCreativeFrequencyCap(0, 0, clock.NewMock())
	for i := 0; i < 5; i++ {
		require.NoError(t, capper.Hit("cr"))
	}
	assert.True(t, capper.Allowed("cr"))
	assert.Equal(t, 5, capper.Count("cr"))

	require.NoError(t, capper.Hit(""))
	assert.True(t, capper.Allowed(""))
}
