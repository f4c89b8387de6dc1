package visits_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic/internal/adapters/storage/memory"
	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/domain/clinics"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/pets"
	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/patch"
)

type fixture struct {
	svc   *visits.Service
	pets  *pets.Service
	pet   pets.Pet
	staff access.Principal
	other access.Principal
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	clinicSvc := clinics.NewService(memory.NewClinicRepo())
	a, err := clinicSvc.Create(ctx, clinics.CreateInput{Name: "A"})
	require.NoError(t, err)
	b, err := clinicSvc.Create(ctx, clinics.CreateInput{Name: "B"})
	require.NoError(t, err)

	ownerSvc := owners.NewService(memory.NewOwnerRepo(), clinicSvc)
	petSvc := pets.NewService(memory.NewPetRepo(), ownerSvc)
	visitSvc := visits.NewService(memory.NewVisitRepo(), petSvc)
	ownerSvc.SetPetRemover(petSvc)
	petSvc.SetVisitRemover(visitSvc)

	staff := access.Principal{UserID: "u-1", Role: access.RoleStaff, ClinicID: a.ID}
	o, err := ownerSvc.Create(ctx, staff, owners.CreateInput{FirstName: "Ana", Phone: "555"})
	require.NoError(t, err)
	p, err := petSvc.Create(ctx, staff, pets.CreateInput{OwnerID: o.ID, Name: "Milo", Species: pets.SpeciesDog})
	require.NoError(t, err)

	return fixture{
		svc:   visitSvc,
		pets:  petSvc,
		pet:   p,
		staff: staff,
		other: access.Principal{UserID: "u-2", Role: access.RoleStaff, ClinicID: b.ID},
	}
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCreate_ReminderPairRequired(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), f.staff, visits.CreateInput{
		PetID:             f.pet.ID,
		VisitDate:         time.Now(),
		VisitType:         visits.VisitTypeVaccination,
		IsReminderEnabled: true,
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	v, err := f.svc.Create(context.Background(), f.staff, visits.CreateInput{
		PetID:             f.pet.ID,
		VisitDate:         time.Now(),
		VisitType:         visits.VisitTypeVaccination,
		IsReminderEnabled: true,
		NextReminderDate:  day(2030, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, f.pet.ClinicID, v.ClinicID)
	assert.False(t, v.ReminderSent)
}

func TestCreate_OtherClinicPetIsNotFound(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), f.other, visits.CreateInput{
		PetID:     f.pet.ID,
		VisitDate: time.Now(),
		VisitType: visits.VisitTypeCheckup,
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateRequest_Validate(t *testing.T) {
	req := visits.CreateRequest{
		PetID:             "p-1",
		VisitDate:         time.Now(),
		VisitType:         "checkup",
		IsReminderEnabled: true,
	}
	require.ErrorIs(t, req.Validate(), apperr.ErrInvalidInput)

	d := patch.NewDate(time.Now().AddDate(0, 1, 0))
	req.NextReminderDate = &d
	require.NoError(t, req.Validate())

	req.VisitType = "haircut"
	require.Error(t, req.Validate())
}

func TestUpdate_ValidatesMergedReminderState(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.staff, visits.CreateInput{
		PetID:             f.pet.ID,
		VisitDate:         time.Now(),
		VisitType:         visits.VisitTypeCheckup,
		IsReminderEnabled: true,
		NextReminderDate:  day(2030, 1, 1),
	})
	require.NoError(t, err)

	// limpiar la fecha con el recordatorio activo no es válido
	_, err = f.svc.Update(ctx, f.staff, v.ID, visits.UpdateInput{
		NextReminderDate: patch.Null[time.Time](),
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	off := false
	updated, err := f.svc.Update(ctx, f.staff, v.ID, visits.UpdateInput{
		IsReminderEnabled: &off,
		NextReminderDate:  patch.Null[time.Time](),
	})
	require.NoError(t, err)
	assert.False(t, updated.IsReminderEnabled)
	assert.Nil(t, updated.NextReminderDate)
}

func TestUpdate_NewReminderDateResetsSent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.staff, visits.CreateInput{
		PetID:             f.pet.ID,
		VisitDate:         time.Now(),
		VisitType:         visits.VisitTypeVaccination,
		IsReminderEnabled: true,
		NextReminderDate:  day(2024, 1, 1),
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkReminderSent(ctx, v.ID))

	got, err := f.svc.Get(ctx, f.staff, v.ID)
	require.NoError(t, err)
	require.True(t, got.ReminderSent)

	updated, err := f.svc.Update(ctx, f.staff, v.ID, visits.UpdateInput{
		NextReminderDate: patch.Some(*day(2031, 6, 1)),
	})
	require.NoError(t, err)
	assert.False(t, updated.ReminderSent)
}

func TestListDue_OnlyEnabledUnsentAndPast(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mk := func(enabled bool, next *time.Time) visits.Visit {
		v, err := f.svc.Create(ctx, f.staff, visits.CreateInput{
			PetID:             f.pet.ID,
			VisitDate:         now.AddDate(0, -1, 0),
			VisitType:         visits.VisitTypeCheckup,
			IsReminderEnabled: enabled,
			NextReminderDate:  next,
		})
		require.NoError(t, err)
		return v
	}
	due := mk(true, day(2026, 3, 1))
	mk(true, day(2026, 4, 1))  // futuro
	mk(false, day(2026, 3, 1)) // deshabilitado
	sent := mk(true, day(2026, 2, 1))
	require.NoError(t, f.svc.MarkReminderSent(ctx, sent.ID))

	out, err := f.svc.ListDue(ctx, f.pet.ClinicID, now, visits.DueCursor{}, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, due.ID, out[0].ID)

	pending, err := f.svc.CountPendingReminders(ctx, f.pet.ClinicID)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
}

func TestListDue_CursorPagesInOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	dates := []*time.Time{day(2026, 3, 3), day(2026, 3, 1), day(2026, 3, 2), day(2026, 3, 1), day(2026, 3, 4)}
	for _, d := range dates {
		_, err := f.svc.Create(ctx, f.staff, visits.CreateInput{
			PetID:             f.pet.ID,
			VisitDate:         now.AddDate(0, -1, 0),
			VisitType:         visits.VisitTypeCheckup,
			IsReminderEnabled: true,
			NextReminderDate:  d,
		})
		require.NoError(t, err)
	}

	var (
		seen  []visits.Visit
		after visits.DueCursor
	)
	for {
		page, err := f.svc.ListDue(ctx, f.pet.ClinicID, now, after, 2)
		require.NoError(t, err)
		seen = append(seen, page...)
		if len(page) < 2 {
			break
		}
		after = visits.CursorOf(page[len(page)-1])
	}

	require.Len(t, seen, len(dates))
	ids := map[string]bool{}
	for i, v := range seen {
		ids[v.ID] = true
		if i == 0 {
			continue
		}
		prev := seen[i-1]
		ordered := prev.NextReminderDate.Before(*v.NextReminderDate) ||
			(prev.NextReminderDate.Equal(*v.NextReminderDate) && prev.ID < v.ID)
		assert.True(t, ordered, "position %d out of order", i)
	}
	assert.Len(t, ids, len(dates))
}

func TestList_DateRangeAndTenant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, d := range []*time.Time{day(2026, 1, 5), day(2026, 2, 5), day(2026, 3, 5)} {
		_, err := f.svc.Create(ctx, f.staff, visits.CreateInput{
			PetID: f.pet.ID, VisitDate: *d, VisitType: visits.VisitTypeCheckup,
		})
		require.NoError(t, err)
	}

	res, err := f.svc.List(ctx, f.staff, visits.ListFilter{
		Page: pagination.New(),
		From: day(2026, 2, 1),
		To:   day(2026, 3, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)

	_, err = f.svc.List(ctx, f.staff, visits.ListFilter{
		Page: pagination.New(),
		From: day(2026, 3, 1),
		To:   day(2026, 2, 1),
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	res, err = f.svc.List(ctx, f.other, visits.ListFilter{Page: pagination.New()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalCount)

	since := day(2026, 2, 1)
	n, err := f.svc.Count(ctx, f.pet.ClinicID, since)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDeletePet_CascadesVisits(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	v, err := f.svc.Create(ctx, f.staff, visits.CreateInput{
		PetID: f.pet.ID, VisitDate: time.Now(), VisitType: visits.VisitTypeDental,
	})
	require.NoError(t, err)

	require.NoError(t, f.pets.Delete(ctx, f.staff, f.pet.ID))

	_, err = f.svc.Get(ctx, f.staff, v.ID)
	require.ErrorIs(t, err, visits.ErrNotFound)
}
