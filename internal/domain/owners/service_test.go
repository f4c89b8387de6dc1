package owners_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic/internal/adapters/storage/memory"
	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/domain/clinics"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/pets"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
)

type fixture struct {
	clinics *clinics.Service
	svc     *owners.Service
	pets    *pets.Service
	clinic  clinics.Clinic
	staff   access.Principal
	other   access.Principal
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	clinicSvc := clinics.NewService(memory.NewClinicRepo())
	enabled := true
	a, err := clinicSvc.Create(ctx, clinics.CreateInput{Name: "A", CanSendReminders: &enabled})
	require.NoError(t, err)
	b, err := clinicSvc.Create(ctx, clinics.CreateInput{Name: "B"})
	require.NoError(t, err)

	ownerSvc := owners.NewService(memory.NewOwnerRepo(), clinicSvc)
	petSvc := pets.NewService(memory.NewPetRepo(), ownerSvc)
	ownerSvc.SetPetRemover(petSvc)

	return fixture{
		clinics: clinicSvc,
		svc:     ownerSvc,
		pets:    petSvc,
		clinic:  a,
		staff:   access.Principal{UserID: "u-1", Role: access.RoleStaff, ClinicID: a.ID},
		other:   access.Principal{UserID: "u-2", Role: access.RoleStaff, ClinicID: b.ID},
	}
}

func TestCreate_RequiredFieldsAndAudit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.staff, owners.CreateInput{FirstName: "  ", Phone: "1"})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.svc.Create(ctx, f.staff, owners.CreateInput{FirstName: "Ana"})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	o, err := f.svc.Create(ctx, f.staff, owners.CreateInput{FirstName: "Ana", LastName: "Paz", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, f.clinic.ID, o.ClinicID)
	assert.Equal(t, "u-1", o.CreatedBy)
	assert.Equal(t, "Ana Paz", o.FullName())
}

func TestCreate_StaffCannotTargetOtherClinic(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), f.other, owners.CreateInput{
		ClinicID: f.clinic.ID, FirstName: "Ana", Phone: "555",
	})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreate_UnknownClinicIsRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := access.Principal{UserID: "root", Role: access.RoleAdmin}

	_, err := f.svc.Create(ctx, admin, owners.CreateInput{ClinicID: "no-such-clinic", FirstName: "Ana", Phone: "555"})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	// Un token con una clínica ya borrada tampoco crea dueños huérfanos.
	ghost := access.Principal{UserID: "u-9", Role: access.RoleStaff, ClinicID: "deleted-clinic"}
	_, err = f.svc.Create(ctx, ghost, owners.CreateInput{FirstName: "Ana", Phone: "555"})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestDeleteByClinic_RemovesOwnersAndPets(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var mine owners.Owner
	for i := 0; i < 120; i++ {
		o, err := f.svc.Create(ctx, f.staff, owners.CreateInput{FirstName: "Ana", Phone: "555"})
		require.NoError(t, err)
		mine = o
	}
	p, err := f.pets.Create(ctx, f.staff, pets.CreateInput{OwnerID: mine.ID, Name: "Milo", Species: pets.SpeciesDog})
	require.NoError(t, err)
	theirs, err := f.svc.Create(ctx, f.other, owners.CreateInput{FirstName: "Bea", Phone: "777"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteByClinic(ctx, f.clinic.ID))

	n, err := f.svc.Count(ctx, f.clinic.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = f.pets.GetByID(ctx, p.ID)
	require.ErrorIs(t, err, pets.ErrNotFound)

	// La otra clínica queda intacta.
	_, err = f.svc.Get(ctx, f.other, theirs.ID)
	require.NoError(t, err)
}

func TestGet_OtherTenantIsNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.staff, owners.CreateInput{FirstName: "Ana", Phone: "555"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.other, o.ID)
	require.ErrorIs(t, err, owners.ErrNotFound)
}

func TestList_SearchAcrossFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, in := range []owners.CreateInput{
		{FirstName: "Ana", LastName: "Paz", Phone: "555-1000"},
		{FirstName: "Luis", LastName: "Gómez", Phone: "555-2000", Email: "luis@mail.com"},
		{FirstName: "Marta", Phone: "777"},
	} {
		_, err := f.svc.Create(ctx, f.staff, in)
		require.NoError(t, err)
	}

	q := pagination.New().WithSearch("555")
	res, err := f.svc.List(ctx, f.staff, owners.ListFilter{Page: q, Search: q.Search})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCount)

	q = pagination.New().WithSearch("luis@")
	res, err = f.svc.List(ctx, f.staff, owners.ListFilter{Page: q, Search: q.Search})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)
}

func TestRemindersEffective_FollowsClinicKillSwitch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.staff, owners.CreateInput{
		FirstName: "Ana", Phone: "555", AllowAutomatedReminders: true,
	})
	require.NoError(t, err)

	eff, err := f.svc.RemindersEffective(ctx, o)
	require.NoError(t, err)
	assert.True(t, eff)

	off := false
	_, err = f.clinics.UpdateReminderSettings(ctx, f.clinic.ID, clinics.ReminderSettings{CanSendReminders: &off})
	require.NoError(t, err)

	eff, err = f.svc.RemindersEffective(ctx, o)
	require.NoError(t, err)
	assert.False(t, eff)

	// el opt-in del dueño no se toca
	got, err := f.svc.Get(ctx, f.staff, o.ID)
	require.NoError(t, err)
	assert.True(t, got.AllowAutomatedReminders)
}

func TestDelete_CascadesPets(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.staff, owners.CreateInput{FirstName: "Ana", Phone: "555"})
	require.NoError(t, err)
	p, err := f.pets.Create(ctx, f.staff, pets.CreateInput{OwnerID: o.ID, Name: "Milo", Species: pets.SpeciesCat})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.staff, o.ID))

	_, err = f.pets.Get(ctx, f.staff, p.ID)
	require.ErrorIs(t, err, pets.ErrNotFound)

	n, err := f.svc.Count(ctx, f.clinic.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
