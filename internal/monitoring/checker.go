package monitoring

import (
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/pipeline"
)

// Checker collects a snapshot after each run and logs any alerts.
type Checker struct {
	alerter *Alerter
	log     *zap.Logger
}

// NewChecker creates a run checker.
func NewChecker(alerter *Alerter) *Checker {
	return &Checker{
		alerter: alerter,
		log:     zap.L().With(zap.String("component", "monitoring.checker")),
	}
}

// Check evaluates res and returns the alerts it raised.
func (c *Checker) Check(res *pipeline.Result) []Alert {
	snap := Collect(res)
	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		c.log.Debug("monitoring: no alerts triggered",
			zap.Int("leads", snap.Leads),
			zap.Float64("acceptance_rate", snap.AcceptanceRate),
		)
		return nil
	}
	for _, a := range alerts {
		c.log.Warn("monitoring: alert",
			zap.String("type", string(a.Type)),
			zap.String("severity", a.Severity),
			zap.String("message", a.Message),
		)
	}
	return alerts
}
