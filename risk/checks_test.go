package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradelab/rangebreak/market"
)

func validIntent() Intent {
	return Intent{
		Instrument: "NIFTY",
		Side:       market.Long,
		Entry:      50,
		Stop:       49.5,
		Size:       400,
	}
}

func flushAccount() Account {
	return Account{Equity: 100000}
}

func codes(d Decision) []string {
	out := make([]string, 0, len(d.Violations))
	for _, v := range d.Violations {
		out = append(out, v.Code)
	}
	return out
}

func TestEvaluate_Allows(t *testing.T) {
	t.Parallel()

	d := Evaluate(DefaultPolicy(), validIntent(), flushAccount())

	assert.True(t, d.Allowed)
	assert.Empty(t, d.Violations)
	assert.InDelta(t, 200.0, d.RiskAmount, 1e-9)
	assert.InDelta(t, 0.2, d.RiskPct, 1e-9)
	assert.InDelta(t, 20.0, d.PositionPct, 1e-9)
}

func TestEvaluate_Violations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		intent Intent
		acct   Account
		code   string
	}{
		{
			"missing stop",
			Intent{Side: market.Long, Entry: 50, Size: 400},
			flushAccount(),
			"NO_STOP_OR_ENTRY",
		},
		{
			"missing size",
			Intent{Side: market.Long, Entry: 50, Stop: 49.5},
			flushAccount(),
			"NO_SIZE",
		},
		{
			"risk too high",
			Intent{Side: market.Long, Entry: 50, Stop: 45, Size: 400},
			flushAccount(),
			"RISK_TOO_HIGH",
		},
		{
			"daily limit",
			validIntent(),
			Account{Equity: 100000, DayRiskAmount: 2900},
			"DAILY_RISK_LIMIT",
		},
		{
			"too many open",
			validIntent(),
			Account{Equity: 100000, OpenTrades: 3},
			"TOO_MANY_OPEN_TRADES",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := Evaluate(DefaultPolicy(), tt.intent, tt.acct)
			assert.False(t, d.Allowed)
			assert.Contains(t, codes(d), tt.code)
			assert.NotEmpty(t, d.Reason())
		})
	}
}

func TestEvaluate_CorrelatedRisk(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	policy.MaxCorrelatedRiskPct = 1.5

	d := Evaluate(policy, validIntent(), Account{
		Equity:            100000,
		CorrelatedRiskAmt: 1400,
	})

	assert.False(t, d.Allowed)
	assert.Contains(t, codes(d), "CORRELATED_RISK_LIMIT")
}

func TestEvaluate_CollectsMultipleViolations(t *testing.T) {
	t.Parallel()

	policy := Policy{
		MaxTradeRiskPct: 0.1,
		MaxPositionPct:  100,
		MaxDailyRiskPct: 0.1,
		MaxOpenTrades:   1,
	}

	d := Evaluate(policy, Intent{
		Side: market.Long, Entry: 50, Stop: 45, Size: 400,
	}, Account{Equity: 100000, OpenTrades: 3})

	assert.False(t, d.Allowed)
	assert.GreaterOrEqual(t, len(d.Violations), 3)
}
