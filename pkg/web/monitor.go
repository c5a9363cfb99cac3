package web

import (
	"context"
	"errors"
	"time"
)

var errNoAttempts = errors.New("monitor requires at least one attempt")

const (
	DefaultMonitorInterval    = 60 * time.Second
	DefaultMonitorMaxAttempts = 5
)

// MonitorOptions configures Monitor.
type MonitorOptions struct {
	Interval    time.Duration
	MaxAttempts int
}

// Probe is the outcome of one monitoring request.
type Probe struct {
	Timestamp      string `json:"timestamp"`
	Success        bool   `json:"success"`
	Status         int    `json:"status,omitempty"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	Error          string `json:"error,omitempty"`
}

// Period is the time span covered by a monitoring run.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MonitorResult is the envelope returned by Monitor.
type MonitorResult struct {
	Success          bool    `json:"success"`
	URL              string  `json:"url"`
	MonitoringPeriod Period  `json:"monitoringPeriod"`
	Results          []Probe `json:"results"`
	Error            string  `json:"error,omitempty"`
}

// Monitor issues up to MaxAttempts sequential GET requests with Interval
// between them. Cancelling ctx stops it early; the probes gathered so far
// are still returned. Success reports whether every probe succeeded.
func (c *Client) Monitor(ctx context.Context, rawURL string, opts MonitorOptions) MonitorResult {
	if opts.Interval <= 0 {
		opts.Interval = DefaultMonitorInterval
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DefaultMonitorMaxAttempts
	}

	out := MonitorResult{URL: rawURL, Results: []Probe{}}
	if opts.MaxAttempts < 0 {
		out.Error = errNoAttempts.Error()
		return out
	}

probes:
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		resp := c.Request(ctx, rawURL, RequestOptions{})
		out.Results = append(out.Results, Probe{
			Timestamp:      resp.Metadata.Timestamp,
			Success:        resp.Success,
			Status:         resp.Status,
			ResponseTimeMs: resp.Metadata.ResponseTimeMs,
			Error:          resp.Error,
		})

		if attempt == opts.MaxAttempts {
			break
		}

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			out.Error = ctx.Err().Error()
			break probes
		case <-timer.C:
		}
	}

	out.MonitoringPeriod = Period{
		Start: out.Results[0].Timestamp,
		End:   out.Results[len(out.Results)-1].Timestamp,
	}

	out.Success = out.Error == ""
	for _, p := range out.Results {
		if !p.Success {
			out.Success = false
		}
	}

	c.logger.Debug("monitor finished", "url", rawURL, "probes", len(out.Results), "success", out.Success)
	return out
}
