package alerting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"repairer-search/internal/common/config"
	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, _, subject, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.subjects = append(f.subjects, subject)
	return "msg-1", nil
}

type fakeMailer struct {
	to   []string
	body string
	err  error
}

func (f *fakeMailer) SendText(_ context.Context, _ string, to []string, _, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.to = to
	f.body = body
	return "mail-1", nil
}

func createTestConfig() config.AlertingConfig {
	cfg := config.AlertingConfig{Enabled: true, MinInterval: 60_000, Region: "eu-west-3"}
	cfg.SNS.TopicARN = "arn:aws:sns:eu-west-3:123456789012:search-alerts"
	cfg.SES.FromEmail = "alerts@example.fr"
	cfg.SES.To = []string{"ops@example.fr"}
	return cfg
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestNotifier_SendsOnBothChannels(t *testing.T) {
	pub, mail := &fakePublisher{}, &fakeMailer{}
	n := NewNotifier(createTestConfig(), "repairer-search", pub, mail, logger.NewTestLogger(t))

	err := n.NotifyDegraded(context.Background(), "search", errors.New("connection refused"))

	require.NoError(t, err)
	assert.Equal(t, []string{"[repairer-search] repairer directory degraded"}, pub.subjects)
	assert.Equal(t, []string{"ops@example.fr"}, mail.to)
	assert.Contains(t, mail.body, "connection refused")
	assert.Contains(t, mail.body, "(search)")
}

func TestNotifier_Throttles(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)}
	pub := &fakePublisher{}
	n := NewNotifier(createTestConfig(), "repairer-search", pub, nil, logger.NewNoOpLogger())
	n.now = clock.now

	require.NoError(t, n.NotifyDegraded(context.Background(), "search", errors.New("down")))
	clock.t = clock.t.Add(30 * time.Second)
	require.NoError(t, n.NotifyDegraded(context.Background(), "search", errors.New("down")))
	assert.Len(t, pub.subjects, 1)

	clock.t = clock.t.Add(31 * time.Second)
	require.NoError(t, n.NotifyDegraded(context.Background(), "quick_search", errors.New("down")))
	assert.Len(t, pub.subjects, 2)
}

func TestNotifier_FailureReleasesSlot(t *testing.T) {
	pub := &fakePublisher{err: errors.New("throttled by aws")}
	n := NewNotifier(createTestConfig(), "repairer-search", pub, nil, logger.NewNoOpLogger())

	err := n.NotifyDegraded(context.Background(), "search", errors.New("down"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlertPublishFailed))

	pub.err = nil
	require.NoError(t, n.NotifyDegraded(context.Background(), "search", errors.New("down")))
	assert.Len(t, pub.subjects, 1)
}

func TestNotifier_SkipsUnconfiguredChannels(t *testing.T) {
	cfg := createTestConfig()
	cfg.SES.To = nil
	mail := &fakeMailer{}
	n := NewNotifier(cfg, "repairer-search", nil, mail, logger.NewNoOpLogger())

	require.NoError(t, n.NotifyDegraded(context.Background(), "search", errors.New("down")))
	assert.Nil(t, mail.to)
}
