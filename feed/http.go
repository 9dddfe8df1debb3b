package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tradelab/rangebreak/market"
)

// HTTPSource fetches candles from a historical-data service. Transient
// failures are retried with exponential backoff; a non-2xx response after
// retries fails the load for that instrument only.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger

	maxElapsed time.Duration
}

func NewHTTPSource(baseURL string, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		maxElapsed: 2 * time.Minute,
	}
}

type candlePayload struct {
	Time       time.Time `json:"time"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     float64   `json:"volume"`
	DailyATR14 float64   `json:"daily_atr_14"`
	BBUpper    float64   `json:"bb_upper"`
	BBMiddle   float64   `json:"bb_middle"`
	BBLower    float64   `json:"bb_lower"`
}

func (s *HTTPSource) Candles(ctx context.Context, instrument, timeframe string, from, to time.Time) ([]market.Candle, error) {
	endpoint := fmt.Sprintf("%s/api/v1/candles?%s", s.baseURL, url.Values{
		"instrument": {instrument},
		"timeframe":  {timeframe},
		"from":       {from.Format(time.RFC3339)},
		"to":         {to.Format(time.RFC3339)},
	}.Encode())

	var payload []candlePayload

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			s.logger.Warn("candle fetch failed, retrying",
				zap.String("instrument", instrument),
				zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("feed: server error %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("feed: unexpected status %d", resp.StatusCode))
		}

		return json.NewDecoder(resp.Body).Decode(&payload)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = s.maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("feed: fetch candles for %s: %w", instrument, err)
	}

	out := make([]market.Candle, 0, len(payload))
	for _, p := range payload {
		out = append(out, market.Candle{
			Time:       p.Time,
			Open:       p.Open,
			High:       p.High,
			Low:        p.Low,
			Close:      p.Close,
			Volume:     p.Volume,
			DailyATR14: p.DailyATR14,
			BBUpper:    p.BBUpper,
			BBMiddle:   p.BBMiddle,
			BBLower:    p.BBLower,
		})
	}
	return out, nil
}
