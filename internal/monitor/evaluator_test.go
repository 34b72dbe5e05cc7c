package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(sec int) time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(sec) * time.Second)
}

func TestEvaluateFirstTickNeverAlerts(t *testing.T) {
	for _, price := range []float64{0.00000001, 1, 50000} {
		state, alert := Evaluate("BTC_USDT", SymbolState{}, price, at(0), DefaultAlertPolicy())

		require.Nil(t, alert, "first tick must not alert at price %v", price)
		assert.True(t, state.Initialized)
		assert.Equal(t, price, state.CurrentPrice)
		assert.Equal(t, price, state.RunningMax)
		assert.Equal(t, at(0), state.RunningMaxAt)
		assert.Equal(t, at(0), state.LastUpdateAt)
		assert.Equal(t, uint64(1), state.UpdateCount)
	}
}

func TestEvaluateRunningMaxTracksHighWaterMark(t *testing.T) {
	policy := DefaultAlertPolicy()
	prices := []float64{10, 12, 11, 15, 9, 15, 20, 19.5}

	var state SymbolState
	max := 0.0
	for i, price := range prices {
		state, _ = Evaluate("ETH_USDT", state, price, at(i), policy)
		if price > max {
			max = price
		}
		assert.Equal(t, max, state.RunningMax, "after price %v", price)
	}
	assert.Equal(t, uint64(len(prices)), state.UpdateCount)
}

func TestEvaluateInclusiveThresholdBoundary(t *testing.T) {
	policy := DefaultAlertPolicy()
	seeded, _ := Evaluate("BTC_USDT", SymbolState{}, 100, at(0), policy)

	state, alert := Evaluate("BTC_USDT", seeded, 80, at(10), policy)
	require.NotNil(t, alert, "drawdown of exactly 20%% must fire")
	assert.InDelta(t, 20.0, alert.DrawdownPercent, 1e-9)
	assert.Equal(t, 80.0, alert.CurrentPrice)
	assert.Equal(t, 100.0, alert.RunningMax)
	assert.Equal(t, int64(10), alert.SecondsSinceMax)
	assert.Equal(t, uint64(2), alert.UpdateCount)
	assert.Equal(t, at(10), alert.EmittedAt)
	assert.Equal(t, "BTC_USDT", alert.Symbol)
	assert.Equal(t, 100.0, state.RunningMax, "firing must not reset the running max")

	_, alert = Evaluate("BTC_USDT", seeded, 80.01, at(10), policy)
	assert.Nil(t, alert, "drawdown of 19.99%% must not fire")
}

func TestEvaluateNewHighResetsBaseline(t *testing.T) {
	policy := DefaultAlertPolicy()

	state, _ := Evaluate("SOL_USDT", SymbolState{}, 100, at(0), policy)
	state, alert := Evaluate("SOL_USDT", state, 110, at(1), policy)
	require.Nil(t, alert, "a new high never alerts")
	assert.Equal(t, 110.0, state.RunningMax)
	assert.Equal(t, at(1), state.RunningMaxAt)

	// 95 is a 13.6% drop from 110 even though it is a 5% drop from the
	// original 100 baseline that has been superseded.
	_, alert = Evaluate("SOL_USDT", state, 95, at(2), policy)
	assert.Nil(t, alert)
}

func TestEvaluateFlatTickChangesOnlyCounters(t *testing.T) {
	policy := DefaultAlertPolicy()

	state, _ := Evaluate("XRP_USDT", SymbolState{}, 42, at(0), policy)
	next, alert := Evaluate("XRP_USDT", state, 42, at(5), policy)

	assert.Nil(t, alert)
	assert.Equal(t, state.RunningMax, next.RunningMax)
	assert.Equal(t, state.RunningMaxAt, next.RunningMaxAt)
	assert.Equal(t, uint64(2), next.UpdateCount)
	assert.Equal(t, at(5), next.LastUpdateAt)
}

func TestEvaluateRefiresEveryQualifyingTick(t *testing.T) {
	policy := DefaultAlertPolicy()

	state, _ := Evaluate("DOGE_USDT", SymbolState{}, 100, at(0), policy)

	state, first := Evaluate("DOGE_USDT", state, 75, at(1), policy)
	require.NotNil(t, first)

	state, second := Evaluate("DOGE_USDT", state, 74, at(2), policy)
	require.NotNil(t, second, "no cooldown by default: the next qualifying tick fires again")
	assert.Equal(t, 100.0, state.RunningMax)
	assert.Greater(t, second.DrawdownPercent, first.DrawdownPercent)
}

func TestEvaluateCooldownSuppressesWithinWindow(t *testing.T) {
	policy := AlertPolicy{ThresholdPercent: 20, Cooldown: time.Minute}

	state, _ := Evaluate("ADA_USDT", SymbolState{}, 100, at(0), policy)

	state, alert := Evaluate("ADA_USDT", state, 75, at(10), policy)
	require.NotNil(t, alert)

	state, alert = Evaluate("ADA_USDT", state, 74, at(30), policy)
	assert.Nil(t, alert, "20s after the last alert is inside the 1m cooldown")

	_, alert = Evaluate("ADA_USDT", state, 73, at(80), policy)
	assert.NotNil(t, alert, "70s after the last alert is outside the cooldown")
}

func TestEvaluateOncePerPeak(t *testing.T) {
	policy := AlertPolicy{ThresholdPercent: 20, OncePerPeak: true}

	state, _ := Evaluate("LTC_USDT", SymbolState{}, 100, at(0), policy)

	state, alert := Evaluate("LTC_USDT", state, 75, at(1), policy)
	require.NotNil(t, alert)

	state, alert = Evaluate("LTC_USDT", state, 70, at(2), policy)
	assert.Nil(t, alert, "the 100 peak already alerted")

	state, alert = Evaluate("LTC_USDT", state, 120, at(3), policy)
	require.Nil(t, alert)
	assert.False(t, state.AlertedAtMax, "a new high re-arms the gate")

	_, alert = Evaluate("LTC_USDT", state, 90, at(4), policy)
	assert.NotNil(t, alert, "25%% below the new 120 peak fires once more")
}

func TestAlertPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultAlertPolicy().Validate())
	assert.Error(t, AlertPolicy{ThresholdPercent: 0}.Validate())
	assert.Error(t, AlertPolicy{ThresholdPercent: -5}.Validate())
	assert.Error(t, AlertPolicy{ThresholdPercent: 20, Cooldown: -time.Second}.Validate())
}
