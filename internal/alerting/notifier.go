// Package alerting notifies operators when searches are served from a failed directory.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"repairer-search/internal/common/config"
	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/logger"
)

const (
	ChannelSNS = "sns"
	ChannelSES = "ses"
)

// Publisher sends a message to an SNS topic.
type Publisher interface {
	Publish(ctx context.Context, topicARN, subject, message string) (string, error)
}

// Mailer sends a plain-text email through SES.
type Mailer interface {
	SendText(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

// Notifier publishes at most one degraded alert per MinInterval.
type Notifier struct {
	cfg         config.AlertingConfig
	service     string
	publisher   Publisher
	mailer      Mailer
	minInterval time.Duration
	logger      logger.Logger
	now         func() time.Time

	mu       sync.Mutex
	lastSent time.Time
}

// NewNotifier builds a notifier. publisher or mailer may be nil to disable that channel.
func NewNotifier(cfg config.AlertingConfig, service string, publisher Publisher, mailer Mailer, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:         cfg,
		service:     service,
		publisher:   publisher,
		mailer:      mailer,
		minInterval: config.GetDuration(cfg.MinInterval),
		logger:      log.WithFields(map[string]interface{}{"component": "alerting"}),
		now:         time.Now,
	}
}

// NotifyDegraded sends the alert unless one went out less than MinInterval ago.
func (n *Notifier) NotifyDegraded(ctx context.Context, operation string, cause error) error {
	if !n.reserve() {
		n.logger.Debug("degraded alert throttled", map[string]interface{}{"operation": operation})
		return nil
	}

	subject := fmt.Sprintf("[%s] repairer directory degraded", n.service)
	body := fmt.Sprintf("Searches (%s) are returning empty results because the repairer directory failed.\nTime: %s\nCause: %v",
		operation, n.now().UTC().Format(time.RFC3339), cause)

	var errs []error
	if n.publisher != nil && n.cfg.SNS.TopicARN != "" {
		id, err := n.publisher.Publish(ctx, n.cfg.SNS.TopicARN, subject, body)
		if err != nil {
			errs = append(errs, apperrors.NewAlertPublishFailedError(ChannelSNS, err))
		} else {
			n.logger.Info("degraded alert published", map[string]interface{}{"channel": ChannelSNS, "messageId": id})
		}
	}
	if n.mailer != nil && n.cfg.SES.FromEmail != "" && len(n.cfg.SES.To) > 0 {
		id, err := n.mailer.SendText(ctx, n.cfg.SES.FromEmail, n.cfg.SES.To, subject, body)
		if err != nil {
			errs = append(errs, apperrors.NewAlertPublishFailedError(ChannelSES, err))
		} else {
			n.logger.Info("degraded alert published", map[string]interface{}{"channel": ChannelSES, "messageId": id})
		}
	}

	if len(errs) > 0 {
		n.release()
	}
	return errors.Join(errs...)
}

// reserve claims the current interval slot.
func (n *Notifier) reserve() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	if !n.lastSent.IsZero() && now.Sub(n.lastSent) < n.minInterval {
		return false
	}
	n.lastSent = now
	return true
}

// release gives the slot back so the next degraded search retries the alert.
func (n *Notifier) release() {
	n.mu.Lock()
	n.lastSent = time.Time{}
	n.mu.Unlock()
}
