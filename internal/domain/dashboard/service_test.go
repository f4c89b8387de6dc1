package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/domain/clinics"
	"vet-clinic/internal/domain/reminders"
	"vet-clinic/internal/platform/apperr"
)

type fakeCounts struct {
	byClinic map[string]int
	err      error
}

func (f fakeCounts) Count(ctx context.Context, clinicID string) (int, error) {
	return f.byClinic[clinicID], f.err
}

type fakeVisits struct {
	sinceSeen *time.Time
}

func (f *fakeVisits) Count(ctx context.Context, clinicID string, since *time.Time) (int, error) {
	if since != nil {
		f.sinceSeen = since
		return 3, nil
	}
	return 10, nil
}

func (f *fakeVisits) CountPendingReminders(ctx context.Context, clinicID string) (int, error) {
	return 2, nil
}

type fakeUsage struct{ calls int }

func (f *fakeUsage) Usage(ctx context.Context, id string) (clinics.Usage, error) {
	f.calls++
	return clinics.Usage{Usage: reminders.Usage{Count: 7, Limit: 10}, CanSend: true, Remaining: 3}, nil
}

func TestStats_ClinicScoped(t *testing.T) {
	v := &fakeVisits{}
	u := &fakeUsage{}
	svc := NewService(fakeCounts{byClinic: map[string]int{"c1": 4}}, fakeCounts{byClinic: map[string]int{"c1": 6}}, v, u)
	svc.now = func() time.Time { return time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC) }

	st, err := svc.Stats(context.Background(), access.Principal{UserID: "u", Role: access.RoleStaff, ClinicID: "c1"}, "")
	require.NoError(t, err)

	assert.Equal(t, 4, st.Owners)
	assert.Equal(t, 6, st.Pets)
	assert.Equal(t, 10, st.Visits)
	assert.Equal(t, 3, st.VisitsThisMonth)
	assert.Equal(t, 2, st.PendingReminders)
	require.NotNil(t, st.ReminderUsage)
	assert.Equal(t, 3, st.ReminderUsage.Remaining)
	require.NotNil(t, v.sinceSeen)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *v.sinceSeen)
}

func TestStats_AdminWithoutClinicSkipsUsage(t *testing.T) {
	u := &fakeUsage{}
	svc := NewService(fakeCounts{}, fakeCounts{}, &fakeVisits{}, u)

	st, err := svc.Stats(context.Background(), access.Principal{UserID: "root", Role: access.RoleAdmin}, "")
	require.NoError(t, err)
	assert.Nil(t, st.ReminderUsage)
	assert.Zero(t, u.calls)
}

func TestStats_ForbiddenOtherClinicAndErrors(t *testing.T) {
	svc := NewService(fakeCounts{}, fakeCounts{}, &fakeVisits{}, &fakeUsage{})
	staff := access.Principal{UserID: "u", Role: access.RoleStaff, ClinicID: "c1"}

	_, err := svc.Stats(context.Background(), staff, "c2")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	boom := errors.New("boom")
	svc = NewService(fakeCounts{err: boom}, fakeCounts{}, &fakeVisits{}, &fakeUsage{})
	_, err = svc.Stats(context.Background(), staff, "")
	require.ErrorIs(t, err, boom)
}
