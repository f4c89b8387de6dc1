package reminders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOwnerEffective(t *testing.T) {
	assert.True(t, OwnerEffective(true, true))
	assert.False(t, OwnerEffective(false, true))
	assert.False(t, OwnerEffective(true, false))
}

func TestValidateVisitReminder(t *testing.T) {
	d := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, ValidateVisitReminder(true, nil), ErrReminderDateRequired)
	assert.ErrorIs(t, ValidateVisitReminder(true, &time.Time{}), ErrReminderDateRequired)
	assert.NoError(t, ValidateVisitReminder(true, &d))
	assert.NoError(t, ValidateVisitReminder(false, &d))
	assert.NoError(t, ValidateVisitReminder(false, nil))
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	base := Candidate{
		Quota:        Quota{CanSendReminders: true, MonthlyLimit: 10, SentThisCycle: 2},
		OwnerAllows:  true,
		VisitEnabled: true,
		NextDate:     &past,
	}

	cases := []struct {
		name   string
		mutate func(c *Candidate)
		want   Reason
	}{
		{"allowed", func(c *Candidate) {}, DecisionAllowed},
		{"visit off", func(c *Candidate) { c.VisitEnabled = false }, DecisionVisitOff},
		{"no date", func(c *Candidate) { c.NextDate = nil }, DecisionVisitOff},
		{"already sent", func(c *Candidate) { c.AlreadySent = true }, DecisionAlreadySent},
		{"not due", func(c *Candidate) { c.NextDate = &future }, DecisionNotDue},
		{"clinic off", func(c *Candidate) { c.Quota.CanSendReminders = false }, DecisionClinicOff},
		{"limit off", func(c *Candidate) { c.Quota.MonthlyLimit = 0 }, DecisionLimitOff},
		{"owner opted out", func(c *Candidate) { c.OwnerAllows = false }, DecisionOwnerOptOut},
		{"quota reached", func(c *Candidate) { c.Quota.SentThisCycle = 10 }, DecisionQuotaReached},
		{"unlimited", func(c *Candidate) { c.Quota.MonthlyLimit = Unlimited; c.Quota.SentThisCycle = 9999 }, DecisionAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mutate(&c)
			d := Evaluate(c, now)
			assert.Equal(t, tc.want, d.Reason)
			assert.Equal(t, tc.want == DecisionAllowed, d.Send)
		})
	}
}
