package clinics

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/patch"
	"vet-clinic/internal/platform/respond"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/clinics", func(cr chi.Router) {
		cr.Get("/", listClinicsHandler(svc))
		cr.Post("/", createClinicHandler(svc))

		cr.Route("/{clinicID}", func(ir chi.Router) {
			ir.Get("/", getClinicHandler(svc))
			ir.Patch("/", updateClinicHandler(svc))
			ir.Delete("/", deleteClinicHandler(svc))

			// Cuota de recordatorios
			ir.Patch("/reminders", updateReminderSettingsHandler(svc))
			ir.Get("/reminder-usage", reminderUsageHandler(svc))
			ir.Post("/reminders/reset-cycle", resetCycleHandler(svc))
		})
	})
}

type createClinicRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=200"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address" validate:"max=300"`

	IsActive             *bool `json:"isActive"`
	CanSendReminders     *bool `json:"canSendReminders"`
	ReminderMonthlyLimit *int  `json:"reminderMonthlyLimit" validate:"omitempty,min=-1"`

	SubscriptionStartDate *patch.Date `json:"subscriptionStartDate"`
	SubscriptionEndDate   *patch.Date `json:"subscriptionEndDate"`
}

type updateClinicRequest struct {
	Name     *string `json:"name" validate:"omitempty,notblank,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Address  *string `json:"address" validate:"omitempty,max=300"`
	IsActive *bool   `json:"isActive"`

	SubscriptionStartDate patch.Optional[patch.Date] `json:"subscriptionStartDate"`
	SubscriptionEndDate   patch.Optional[patch.Date] `json:"subscriptionEndDate"`
}

type reminderSettingsRequest struct {
	CanSendReminders     *bool `json:"canSendReminders"`
	ReminderMonthlyLimit *int  `json:"reminderMonthlyLimit" validate:"omitempty,min=-1"`
}

type clinicResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	IsActive              bool        `json:"isActive"`
	CanSendReminders      bool        `json:"canSendReminders"`
	ReminderMonthlyLimit  int         `json:"reminderMonthlyLimit"`
	ReminderSentThisCycle int         `json:"reminderSentThisCycle"`
	CurrentCycleStartDate patch.Date  `json:"currentCycleStartDate"`
	SubscriptionStartDate *patch.Date `json:"subscriptionStartDate"`
	SubscriptionEndDate   *patch.Date `json:"subscriptionEndDate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// listClinicsHandler godoc
// @Summary  Lista clínicas
// @Tags     clinics
// @Produce  json
// @Param    page    query  int     false  "Página (>=1)"
// @Param    limit   query  int     false  "10, 20, 50 o 100"
// @Param    search  query  string  false  "Busca por nombre o email"
// @Param    status  query  string  false  "ACTIVE | INACTIVE | ALL"
// @Success  200  {object}  pagination.LegacyPage[clinicResponse]
// @Router   /clinics [get]
func listClinicsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeClinicsRead)
		if err != nil {
			respond.Error(w, err)
			return
		}

		q, err := pagination.FromRequest(r, "status")
		if err != nil {
			respond.Error(w, err)
			return
		}

		f := ListFilter{Page: q, Search: q.Search}
		switch strings.ToUpper(q.Filter("status")) {
		case "":
		case StatusActive:
			f.Active = boolPtr(true)
		case StatusInactive:
			f.Active = boolPtr(false)
		default:
			respond.Error(w, apperr.NewValidation("status", "must be ACTIVE, INACTIVE or ALL"))
			return
		}
		// Fuera de ADMIN solo se ve la propia clínica.
		if !p.IsAdmin() {
			f.IDs = []string{p.ClinicID}
		}

		res, err := svc.List(r.Context(), f)
		if err != nil {
			respond.Error(w, err)
			return
		}
		out := pagination.Map(res, toClinicResponse)
		respond.JSON(w, http.StatusOK, pagination.NewLegacyPage(out.Items, out.TotalCount, q))
	}
}

// createClinicHandler godoc
// @Summary  Alta de clínica (ADMIN)
// @Tags     clinics
// @Accept   json
// @Produce  json
// @Param    body  body  createClinicRequest  true  "Clínica"
// @Success  201  {object}  clinicResponse
// @Failure  400  {object}  respond.ErrorBody
// @Router   /clinics [post]
func createClinicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := access.Require(r.Context(), access.ScopeClinicsManage); err != nil {
			respond.Error(w, err)
			return
		}

		var req createClinicRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}

		c, err := svc.Create(r.Context(), CreateInput{
			Name:                  req.Name,
			Email:                 req.Email,
			Phone:                 req.Phone,
			Address:               req.Address,
			IsActive:              req.IsActive,
			CanSendReminders:      req.CanSendReminders,
			ReminderMonthlyLimit:  req.ReminderMonthlyLimit,
			SubscriptionStartDate: req.SubscriptionStartDate.Ptr(),
			SubscriptionEndDate:   req.SubscriptionEndDate.Ptr(),
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toClinicResponse(c))
	}
}

func getClinicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeClinic(w, r, access.ScopeClinicsRead)
		if !ok {
			return
		}
		c, err := svc.GetByID(r.Context(), id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toClinicResponse(c))
	}
}

// updateClinicHandler: CLINIC_ADMIN edita el perfil de su clínica; estado y
// suscripción quedan para ADMIN.
func updateClinicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeClinic(w, r, access.ScopeClinicsProfile)
		if !ok {
			return
		}

		var req updateClinicRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}

		in := UpdateInput{
			Name:                  req.Name,
			Email:                 req.Email,
			Phone:                 req.Phone,
			Address:               req.Address,
			IsActive:              req.IsActive,
			SubscriptionStartDate: toTimeOptional(req.SubscriptionStartDate),
			SubscriptionEndDate:   toTimeOptional(req.SubscriptionEndDate),
		}
		if in.TouchesAdminFields() {
			if _, err := access.Require(r.Context(), access.ScopeClinicsManage); err != nil {
				respond.Error(w, err)
				return
			}
		}

		c, err := svc.Update(r.Context(), id, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toClinicResponse(c))
	}
}

func deleteClinicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeClinic(w, r, access.ScopeClinicsManage)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			respond.Error(w, err)
			return
		}
		respond.NoContent(w)
	}
}

// updateReminderSettingsHandler godoc
// @Summary  Kill switch y límite mensual de recordatorios (ADMIN)
// @Tags     clinics
// @Accept   json
// @Produce  json
// @Param    clinicID  path  string                   true  "Clinic ID"
// @Param    body      body  reminderSettingsRequest  true  "Settings"
// @Success  200  {object}  clinicResponse
// @Router   /clinics/{clinicID}/reminders [patch]
func updateReminderSettingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeClinic(w, r, access.ScopeClinicsReminders)
		if !ok {
			return
		}

		var req reminderSettingsRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}

		c, err := svc.UpdateReminderSettings(r.Context(), id, ReminderSettings{
			CanSendReminders:     req.CanSendReminders,
			ReminderMonthlyLimit: req.ReminderMonthlyLimit,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toClinicResponse(c))
	}
}

// reminderUsageHandler godoc
// @Summary  Uso de la cuota del ciclo actual
// @Tags     clinics
// @Produce  json
// @Param    clinicID  path  string  true  "Clinic ID"
// @Success  200  {object}  Usage
// @Router   /clinics/{clinicID}/reminder-usage [get]
func reminderUsageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeClinic(w, r, access.ScopeClinicsRead)
		if !ok {
			return
		}
		u, err := svc.Usage(r.Context(), id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, u)
	}
}

func resetCycleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := authorizeClinic(w, r, access.ScopeClinicsReminders)
		if !ok {
			return
		}
		c, err := svc.ResetCycle(r.Context(), id)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, UsageOf(c))
	}
}

// authorizeClinic valida scope + acceso al {clinicID} de la ruta. Si falla ya respondió.
func authorizeClinic(w http.ResponseWriter, r *http.Request, scope access.Scope) (string, bool) {
	p, err := access.Require(r.Context(), scope)
	if err != nil {
		respond.Error(w, err)
		return "", false
	}
	id := chi.URLParam(r, "clinicID")
	if !p.CanAccessClinic(id) {
		respond.Error(w, apperr.ErrForbidden)
		return "", false
	}
	return id, true
}

func toTimeOptional(o patch.Optional[patch.Date]) patch.Optional[time.Time] {
	if !o.Set {
		return patch.Optional[time.Time]{}
	}
	return patch.Optional[time.Time]{Set: true, Value: o.Value.Ptr()}
}

func toClinicResponse(c Clinic) clinicResponse {
	return clinicResponse{
		ID:                    c.ID,
		Name:                  c.Name,
		Email:                 c.Email,
		Phone:                 c.Phone,
		Address:               c.Address,
		IsActive:              c.IsActive,
		CanSendReminders:      c.CanSendReminders,
		ReminderMonthlyLimit:  c.ReminderMonthlyLimit,
		ReminderSentThisCycle: c.ReminderSentThisCycle,
		CurrentCycleStartDate: patch.NewDate(c.CurrentCycleStartDate),
		SubscriptionStartDate: patch.DateOf(c.SubscriptionStartDate),
		SubscriptionEndDate:   patch.DateOf(c.SubscriptionEndDate),
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

func boolPtr(b bool) *bool { return &b }
