package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"meeting-attendance/internal/config"
	"meeting-attendance/internal/metrics"
)

// Result is the outcome of one send.
type Result struct {
	Recipient string `json:"recipient"`
	Kind      Kind   `json:"kind"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Report aggregates the results of a fan-out.
type Report struct {
	Total   int      `json:"total"`
	Sent    int      `json:"sent"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

// Status summarizes the report: "empty", "sent", "partial" or "failed".
func (r *Report) Status() string {
	switch {
	case r.Total == 0:
		return "empty"
	case r.Failed == 0:
		return "sent"
	case r.Sent == 0:
		return "failed"
	default:
		return "partial"
	}
}

// Dispatcher sends a batch of notifications concurrently with bounded
// parallelism, a shared rate limit and a per-recipient timeout.
type Dispatcher struct {
	sender      Sender
	limiter     *rate.Limiter
	timeout     time.Duration
	parallelism int
	logger      *slog.Logger
}

func NewDispatcher(sender Sender, cfg config.NotifyConfig) *Dispatcher {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	parallelism := cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Dispatcher{
		sender:      sender,
		limiter:     rate.NewLimiter(limit, burst),
		timeout:     timeout,
		parallelism: parallelism,
		logger:      slog.With("component", "notify"),
	}
}

// Dispatch sends every notification and waits for all of them. A failing or
// slow recipient only affects its own result.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []Notification) *Report {
	report := &Report{Total: len(batch), Results: make([]Result, len(batch))}
	if len(batch) == 0 {
		return report
	}

	var g errgroup.Group
	g.SetLimit(d.parallelism)
	for i, n := range batch {
		g.Go(func() error {
			report.Results[i] = d.send(ctx, n)
			return nil
		})
	}
	g.Wait()

	for _, res := range report.Results {
		if res.Success {
			report.Sent++
		} else {
			report.Failed++
		}
	}

	d.logger.Info("Dispatched notifications", "total", report.Total, "sent", report.Sent, "failed", report.Failed)
	return report
}

func (d *Dispatcher) send(ctx context.Context, n Notification) Result {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	res := Result{Recipient: n.Recipient, Kind: n.Kind}

	err := d.limiter.Wait(ctx)
	if err == nil {
		err = d.sender.Send(ctx, n.Message)
	}
	metrics.NotificationSendDuration.WithLabelValues(string(n.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		d.logger.Warn("Failed to send notification", "kind", n.Kind, "recipient", n.Recipient, "error", err)
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "failed").Inc()
		res.Error = err.Error()
		return res
	}

	metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "sent").Inc()
	res.Success = true
	return res
}
