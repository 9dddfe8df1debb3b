package risk

import (
	"fmt"

	"github.com/tradelab/rangebreak/market"
)

// Intent is a proposed position to be validated against a Policy.
type Intent struct {
	Instrument string
	Side       market.Side
	Entry      float64
	Stop       float64
	Size       float64
}

// Account is the account state the intent is judged against.
type Account struct {
	Equity            float64
	OpenTrades        int
	DayRiskAmount     float64 // risk already committed today
	CorrelatedRiskAmt float64 // risk open in correlated instruments
}

// Violation is one coded policy breach.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of validating an intent. A risk-limit breach is
// expected control flow, not an error: the caller reads Allowed and the
// violation list.
type Decision struct {
	Allowed    bool
	Violations []Violation

	RiskAmount  float64
	RiskPct     float64
	PositionPct float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason flattens the first violation into a string for logs and rejects.
func (d Decision) Reason() string {
	if d.Allowed || len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Msg
}

// Evaluate validates a proposed position against the policy ceilings.
// Malformed input (zero entry/stop/size) is also reported as a violation so
// per-candle processing never has to recover from a panic here.
func Evaluate(p Policy, intent Intent, acct Account) Decision {
	d := Decision{Allowed: true}

	if intent.Entry == 0 || intent.Stop == 0 {
		d.add("NO_STOP_OR_ENTRY", "entry/stop must be set")
		return d
	}
	if intent.Size <= 0 {
		d.add("NO_SIZE", "size must be positive")
		return d
	}

	d.RiskAmount = AmountAtRisk(intent.Size, intent.Entry, intent.Stop)
	d.RiskPct = Pct(d.RiskAmount, acct.Equity)
	d.PositionPct = Pct(intent.Size*intent.Entry, acct.Equity)

	if d.RiskPct > p.MaxTradeRiskPct {
		d.add("RISK_TOO_HIGH",
			fmt.Sprintf("planned risk %.2f%% exceeds max %.2f%%", d.RiskPct, p.MaxTradeRiskPct))
	}
	if d.PositionPct > p.MaxPositionPct {
		d.add("POSITION_TOO_LARGE",
			fmt.Sprintf("position %.2f%% of equity exceeds max %.2f%%", d.PositionPct, p.MaxPositionPct))
	}

	dayPct := Pct(acct.DayRiskAmount+d.RiskAmount, acct.Equity)
	if dayPct > p.MaxDailyRiskPct {
		d.add("DAILY_RISK_LIMIT",
			fmt.Sprintf("cumulative day risk %.2f%% exceeds max %.2f%%", dayPct, p.MaxDailyRiskPct))
	}

	if p.MaxCorrelatedRiskPct > 0 {
		corrPct := Pct(acct.CorrelatedRiskAmt+d.RiskAmount, acct.Equity)
		if corrPct > p.MaxCorrelatedRiskPct {
			d.add("CORRELATED_RISK_LIMIT",
				fmt.Sprintf("correlated risk %.2f%% exceeds max %.2f%%", corrPct, p.MaxCorrelatedRiskPct))
		}
	}

	if acct.OpenTrades >= p.MaxOpenTrades {
		d.add("TOO_MANY_OPEN_TRADES",
			fmt.Sprintf("open trades %d >= max %d", acct.OpenTrades, p.MaxOpenTrades))
	}

	return d
}
