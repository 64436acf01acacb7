package retention_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jschultzelutter/mowas-beacon/internal/retention"
)

func TestEnabled_DisabledByDefault(t *testing.T) {
	j := retention.New(retention.Config{})
	assert.False(t, j.Enabled())
}

func TestEnabled_DisabledByZeroRetention(t *testing.T) {
	j := retention.New(retention.Config{
		Address: "user@example.com", ServerHost: "imap.example.com", ServerPort: 993, MaxRetentionDays: 0,
	})
	assert.False(t, j.Enabled())
}

func TestEnabled_DisabledByInvalidAddress(t *testing.T) {
	j := retention.New(retention.Config{
		Address: "not-an-email", ServerHost: "imap.example.com", ServerPort: 993, MaxRetentionDays: 30,
	})
	assert.False(t, j.Enabled())
}

func TestEnabled_EnabledWithFullConfig(t *testing.T) {
	j := retention.New(retention.Config{
		Address: "user@example.com", ServerHost: "imap.example.com", ServerPort: 993, MaxRetentionDays: 30, MailboxName: "Sent",
	})
	assert.True(t, j.Enabled())
}

func TestRun_DisabledReturnsOnCancel(t *testing.T) {
	j := retention.New(retention.Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := j.Run(ctx, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
