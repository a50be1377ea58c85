package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/finhealth/internal/defusal"
	"github.com/Dan9191/finhealth/internal/health"
	"github.com/Dan9191/finhealth/internal/models"
	"github.com/Dan9191/finhealth/internal/service"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds one run over all users
const jobTimeout = 5 * time.Minute

// UserLister lists every user a job should visit
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Publisher republishes a user's shared aggregates
type Publisher interface {
	PublishAggregates(ctx context.Context, userID string) (models.SharedAggregate, error)
}

// AlertSource evaluates what a user should be warned about
type AlertSource interface {
	Alerts(ctx context.Context, userID string) (service.Alerts, error)
}

// Notifier delivers alerts to users
type Notifier interface {
	SendBombAlert(user *models.User, plans []defusal.Plan) error
	SendHealthAlert(user *models.User, report health.Report) error
}

// AggregateJob keeps every user's published aggregates in line with their records
type AggregateJob struct {
	users     UserLister
	publisher Publisher
	log       *logrus.Entry
}

// NewAggregateJob creates the aggregate republish job
func NewAggregateJob(users UserLister, publisher Publisher, log *logrus.Logger) *AggregateJob {
	return &AggregateJob{
		users:     users,
		publisher: publisher,
		log:       log.WithField("job", "publish_aggregates"),
	}
}

// Name returns the job name
func (j *AggregateJob) Name() string {
	return "publish_aggregates"
}

// Run republishes aggregates for all users. A failing user does not stop the rest.
func (j *AggregateJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	ids, err := j.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if _, err := j.publisher.PublishAggregates(ctx, id); err != nil {
			j.log.WithField("user_id", id).Errorf("Failed to publish aggregates: %v", err)
			errs = append(errs, fmt.Errorf("user %s: %w", id, err))
		}
	}
	j.log.Infof("Aggregates republished for %d of %d users", len(ids)-len(errs), len(ids))
	return errors.Join(errs...)
}

// AlertJob emails users whose health is worrisome or whose bombs cannot be defused
type AlertJob struct {
	users    UserLister
	alerts   AlertSource
	notifier Notifier
	log      *logrus.Entry
}

// NewAlertJob creates the alert job
func NewAlertJob(users UserLister, alerts AlertSource, notifier Notifier, log *logrus.Logger) *AlertJob {
	return &AlertJob{
		users:    users,
		alerts:   alerts,
		notifier: notifier,
		log:      log.WithField("job", "alerts"),
	}
}

// Name returns the job name
func (j *AlertJob) Name() string {
	return "alerts"
}

// Run evaluates every user and sends at most one email of each kind per user
func (j *AlertJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	ids, err := j.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var errs []error
	sent := 0
	for _, id := range ids {
		a, err := j.alerts.Alerts(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", id, err))
			continue
		}
		if !a.Any() || a.User == nil || a.User.Email == "" {
			continue
		}
		if a.Worrisome() {
			if err := j.notifier.SendHealthAlert(a.User, a.Report); err != nil {
				errs = append(errs, fmt.Errorf("user %s: %w", id, err))
			} else {
				sent++
			}
		}
		if len(a.Critical) > 0 {
			if err := j.notifier.SendBombAlert(a.User, a.Critical); err != nil {
				errs = append(errs, fmt.Errorf("user %s: %w", id, err))
			} else {
				sent++
			}
		}
	}
	j.log.Infof("Sent %d alerts to %d users", sent, len(ids))
	return errors.Join(errs...)
}
