package service

import (
	"context"

	"github.com/Dan9191/finhealth/internal/defusal"
	"github.com/Dan9191/finhealth/internal/health"
	"github.com/Dan9191/finhealth/internal/models"
)

// Alerts is what a user should be warned about
type Alerts struct {
	User     *models.User
	Report   health.Report
	Critical []defusal.Plan
}

// Worrisome reports whether outflow exceeds income
func (a Alerts) Worrisome() bool {
	return a.Report.Category == health.CategoryWorrisome
}

// Any reports whether there is anything to warn about
func (a Alerts) Any() bool {
	return a.Worrisome() || len(a.Critical) > 0
}

// Alerts evaluates the caller's own health and bomb plans for warnings
func (s *Service) Alerts(ctx context.Context, userID string) (Alerts, error) {
	ev, err := s.evaluate(ctx, userID, health.Self())
	if err != nil {
		return Alerts{}, err
	}
	alerts := Alerts{User: ev.user, Report: ev.report}
	for _, p := range s.plan(ev) {
		if p.Severity == defusal.SeverityCritical {
			alerts.Critical = append(alerts.Critical, p)
		}
	}
	return alerts, nil
}
