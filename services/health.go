package services

import (
	"context"
	"fmt"
	"time"
)

// Check statuses reported by /health.
const (
	StatusOK         = "OK"
	StatusBad        = "BAD"
	StatusNotEnabled = "N/A"
)

// Pinger is satisfied by *cache.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckResult is the outcome of a single dependency check.
type CheckResult struct {
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	ResponseTime int64  `json:"response_time"` // milliseconds
}

// Check tests one dependency.
type Check func(ctx context.Context) CheckResult

// CacheCheck pings the process store. A nil pinger means the store is not
// configured.
func CacheCheck(p Pinger) Check {
	return func(ctx context.Context) CheckResult {
		if p == nil {
			return CheckResult{Status: StatusNotEnabled}
		}
		start := time.Now()
		err := p.Ping(ctx)
		res := CheckResult{Status: StatusOK, ResponseTime: time.Since(start).Milliseconds()}
		if err != nil {
			res.Status = StatusBad
			res.Error = err.Error()
		}
		return res
	}
}

// DiscordCheck reports whether the gateway connection is up.
func DiscordCheck(src Source) Check {
	return func(context.Context) CheckResult {
		st := src.Status()
		switch st.State {
		case "connected", "initialized":
			return CheckResult{Status: StatusOK}
		default:
			return CheckResult{Status: StatusBad, Error: fmt.Sprintf("gateway %s", st.State)}
		}
	}
}

// GetStatusEmoji returns an emoji indicator for a check status.
func GetStatusEmoji(status string) string {
	switch status {
	case StatusOK:
		return "✅"
	case StatusBad:
		return "❌"
	default:
		return "❓"
	}
}
