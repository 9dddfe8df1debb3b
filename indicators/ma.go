package indicators

import (
	"fmt"

	"github.com/tradelab/rangebreak/market"
)

// SMA is a streaming simple moving average over closes.
type SMA struct {
	period int
	window []float64
	sum    float64
}

func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		window: make([]float64, 0, period),
	}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA(%d)", s.period)
}

func (s *SMA) Warmup() int { return s.period }

func (s *SMA) Reset() {
	s.window = s.window[:0]
	s.sum = 0
}

func (s *SMA) Update(c market.Candle) {
	s.window = append(s.window, c.Close)
	s.sum += c.Close

	if len(s.window) > s.period {
		s.sum -= s.window[0]
		s.window = s.window[1:]
	}
}

func (s *SMA) Ready() bool {
	return len(s.window) >= s.period
}

func (s *SMA) Value() float64 {
	if !s.Ready() {
		return 0
	}
	return s.sum / float64(s.period)
}
