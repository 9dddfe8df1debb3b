// Package server exposes the backtest runner over HTTP.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tradelab/rangebreak/backtest"
	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/perf"
)

// Server wires the runner behind a gin router.
type Server struct {
	runner *backtest.Runner
	logger *zap.Logger
	engine *gin.Engine
	addr   string
}

func New(runner *backtest.Runner, addr, mode string, logger *zap.Logger) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		runner: runner,
		logger: logger,
		addr:   addr,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/backtests", s.runBacktest)
		v1.POST("/backtests/parallel", s.runParallel)
	}

	s.engine = r
	return s
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.addr))
	return s.engine.Run(s.addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// BacktestRequest is the single-instrument run request.
type BacktestRequest struct {
	Instrument string  `json:"instrument" binding:"required"`
	Bias       string  `json:"bias"`
	TickSize   float64 `json:"tick_size"`
	Timeframe  string  `json:"timeframe" binding:"required"`
	From       string  `json:"from" binding:"required"` // RFC3339
	To         string  `json:"to" binding:"required"`   // RFC3339
}

// ParallelRequest runs one backtest per instrument concurrently.
type ParallelRequest struct {
	Instruments []BacktestRequest `json:"instruments" binding:"required,min=1,dive"`
}

// BacktestResponse is the run outcome plus plain-language recommendations.
type BacktestResponse struct {
	RunID           string       `json:"run_id,omitempty"`
	Instrument      string       `json:"instrument"`
	Strategy        string       `json:"strategy,omitempty"`
	InitialCapital  float64      `json:"initial_capital"`
	FinalCapital    float64      `json:"final_capital"`
	DaysProcessed   int          `json:"days_processed"`
	DaysSkipped     int          `json:"days_skipped"`
	Summary         perf.Summary `json:"summary"`
	Recommendations []string     `json:"recommendations,omitempty"`
	Error           string       `json:"error,omitempty"`
}

func (r BacktestRequest) instrument() (market.Instrument, bool) {
	bias, ok := market.SideFromString(strings.ToUpper(r.Bias))
	if r.Bias == "" {
		bias, ok = market.Long, true
	}
	if !ok {
		return market.Instrument{}, false
	}
	tick := r.TickSize
	if tick <= 0 {
		tick = 0.05
	}
	return market.Instrument{Key: r.Instrument, Name: r.Instrument, Bias: bias, TickSize: tick}, true
}

func (r BacktestRequest) window() (from, to time.Time, err error) {
	from, err = time.Parse(time.RFC3339, r.From)
	if err != nil {
		return
	}
	to, err = time.Parse(time.RFC3339, r.To)
	return
}

func (s *Server) runBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inst, ok := req.instrument()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bias must be long or short"})
		return
	}
	from, to, err := req.window()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be RFC3339 timestamps"})
		return
	}

	result, err := s.runner.RunSingle(c.Request.Context(), inst, req.Timeframe, from, to)
	if err != nil {
		s.logger.Error("backtest failed",
			zap.String("instrument", inst.Key),
			zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toResponse(result))
}

func (s *Server) runParallel(c *gin.Context) {
	var req ParallelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instruments := make([]market.Instrument, 0, len(req.Instruments))
	for _, r := range req.Instruments {
		inst, ok := r.instrument()
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bias must be long or short"})
			return
		}
		instruments = append(instruments, inst)
	}

	// The first request's window and timeframe apply to the whole batch.
	from, to, err := req.Instruments[0].window()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be RFC3339 timestamps"})
		return
	}

	results := s.runner.RunParallel(c.Request.Context(),
		instruments, req.Instruments[0].Timeframe, from, to)

	out := make(map[string]BacktestResponse, len(results))
	for key, res := range results {
		out[key] = toResponse(res)
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

func toResponse(r *backtest.Result) BacktestResponse {
	resp := BacktestResponse{
		RunID:          r.RunID,
		Instrument:     r.Instrument.Key,
		Strategy:       r.Strategy,
		InitialCapital: r.InitialCapital,
		FinalCapital:   r.FinalCapital,
		DaysProcessed:  r.DaysProcessed,
		DaysSkipped:    r.DaysSkipped,
		Summary:        r.Summary,
		Error:          r.Err,
	}
	if r.Err == "" {
		resp.Recommendations = perf.Recommendations(r.Summary)
	}
	return resp
}
