package notification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/spin-wager-platform/pkg/contracts/events"
)

func TestForSettlementWin(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := ForSettlement("acc-1", "2x", decimal.NewFromInt(50), decimal.NewFromInt(100), at)

	assert.Equal(t, "You won!", n.Title)
	assert.Equal(t, SeveritySuccess, n.Severity)
	assert.Contains(t, n.Body, "100.00")
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, at, n.CreatedAt)
}

func TestForSettlementLoss(t *testing.T) {
	n := ForSettlement("acc-1", "0x", decimal.NewFromInt(50), decimal.Zero, time.Now())

	assert.Equal(t, "No luck this time", n.Title)
	assert.Equal(t, SeverityInfo, n.Severity)
	assert.Contains(t, n.Body, "50.00")
}

func TestForSettlementFollowsNetChange(t *testing.T) {
	cases := []struct {
		name      string
		winAmount string
		title     string
		severity  Severity
		body      string
	}{
		{"partial return", "25", "Partial return", SeverityInfo, "net -25.00"},
		{"stake back", "50", "Stake returned", SeverityInfo, "50.00 was returned"},
		{"small gain", "50.01", "You won!", SeveritySuccess, "50.01"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n := ForSettlement("acc-1", "x", decimal.NewFromInt(50), decimal.RequireFromString(c.winAmount), time.Now())
			assert.Equal(t, c.title, n.Title)
			assert.Equal(t, c.severity, n.Severity)
			assert.Contains(t, n.Body, c.body)
		})
	}
}

func TestEventRoundTripKeepsFields(t *testing.T) {
	n := ForSettlement("acc-9", "3x", decimal.NewFromInt(1), decimal.NewFromInt(3), time.Now())

	got, err := FromEvent(ToEvent(n))
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, n.Severity, got.Severity)
	assert.Equal(t, n.Body, got.Body)
}

func TestFromEventRejectsBadPayload(t *testing.T) {
	_, err := FromEvent(events.NotificationRequested{AccountID: "a", Severity: "info"})
	require.Error(t, err)

	_, err = FromEvent(events.NotificationRequested{NotificationID: "n", AccountID: "a", Severity: "loud"})
	require.Error(t, err)
}
