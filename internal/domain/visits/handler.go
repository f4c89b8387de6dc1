package visits

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/patch"
	"vet-clinic/internal/platform/respond"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/visits", func(vr chi.Router) {
		vr.Get("/", listVisitsHandler(svc))
		vr.Post("/", createVisitHandler(svc))
		vr.Get("/{visitID}", getVisitHandler(svc))
		vr.Patch("/{visitID}", updateVisitHandler(svc))
		vr.Delete("/{visitID}", deleteVisitHandler(svc))
	})
}

// PetRoutes agrega GET /pets/{petID}/visits.
func PetRoutes(svc *Service) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/visits", listPetVisitsHandler(svc))
	}
}

var visitFilterKeys = []string{"visitType", "petId", "dateFrom", "dateTo", "clinicId"}

// visitResponse representa una visita devuelta por la API.
type visitResponse struct {
	ID        string        `json:"id"`
	ClinicID  string        `json:"clinicId"`
	PetID     string        `json:"petId"`
	VisitDate time.Time     `json:"visitDate"`
	VisitType VisitType     `json:"visitType"`
	Notes     string        `json:"notes"`
	Price     *float64      `json:"price"`
	Vitals    VitalsPayload `json:"vitals"`

	IsReminderEnabled bool        `json:"isReminderEnabled"`
	NextReminderDate  *patch.Date `json:"nextReminderDate"`
	ReminderSent      bool        `json:"reminderSent"`

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// createVisitHandler godoc
// @Summary Registrar visita
// @Description Crea una visita para una mascota de la clínica. Si `isReminderEnabled` es true, `nextReminderDate` es obligatorio. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags visits
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body CreateRequest true "Datos de la visita; visitDate en RFC3339, nextReminderDate en YYYY-MM-DD"
// @Success 201 {object} visitResponse
// @Failure 400 {object} respond.ErrorBody "validación"
// @Failure 401 {object} respond.ErrorBody "unauthorized"
// @Failure 403 {object} respond.ErrorBody "forbidden"
// @Failure 404 {object} respond.ErrorBody "pet not found"
// @Router /visits [post]
func createVisitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeVisitsWrite)
		if err != nil {
			respond.Error(w, err)
			return
		}

		var req CreateRequest
		if err := respond.DecodeJSON(r, &req); err != nil {
			respond.Error(w, err)
			return
		}
		if err := req.Validate(); err != nil {
			respond.Error(w, err)
			return
		}

		v, err := svc.Create(r.Context(), p, CreateInput{
			PetID:             req.PetID,
			VisitDate:         req.VisitDate,
			VisitType:         VisitType(req.VisitType),
			Notes:             req.Notes,
			Price:             req.Price,
			Vitals:            req.Vitals.toVitals(),
			IsReminderEnabled: req.IsReminderEnabled,
			NextReminderDate:  req.NextReminderDate.Ptr(),
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toVisitResponse(v))
	}
}

// listVisitsHandler godoc
// @Summary Listar visitas
// @Description Lista paginada de visitas de la clínica. Filtros en "ALL" o vacíos se ignoran.
// @Tags visits
// @Produce json
// @Param page query int false "Página (>=1)"
// @Param limit query int false "10, 20, 50 o 100"
// @Param search query string false "Texto libre en notas"
// @Param visitType query string false "checkup | vaccination | emergency | surgery | dental | grooming | other | ALL"
// @Param petId query string false "Mascota"
// @Param dateFrom query string false "YYYY-MM-DD (inclusive)"
// @Param dateTo query string false "YYYY-MM-DD (inclusive)"
// @Success 200 {object} pagination.Page[visitResponse]
// @Failure 400 {object} respond.ErrorBody "Parámetros de filtro inválidos"
// @Router /visits [get]
func listVisitsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeClinicsRead)
		if err != nil {
			respond.Error(w, err)
			return
		}
		q, f, err := parseListFilter(r)
		if err != nil {
			respond.Error(w, err)
			return
		}

		res, err := svc.List(r.Context(), p, f)
		if err != nil {
			respond.Error(w, err)
			return
		}
		out := pagination.Map(res, toVisitResponse)
		respond.JSON(w, http.StatusOK, pagination.NewPage(out.Items, out.TotalCount, q))
	}
}

func listPetVisitsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeClinicsRead)
		if err != nil {
			respond.Error(w, err)
			return
		}
		q, f, err := parseListFilter(r)
		if err != nil {
			respond.Error(w, err)
			return
		}

		res, err := svc.ListByPet(r.Context(), p, chi.URLParam(r, "petID"), f)
		if err != nil {
			respond.Error(w, err)
			return
		}
		out := pagination.Map(res, toVisitResponse)
		respond.JSON(w, http.StatusOK, pagination.NewPage(out.Items, out.TotalCount, q))
	}
}

func getVisitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeClinicsRead)
		if err != nil {
			respond.Error(w, err)
			return
		}
		v, err := svc.Get(r.Context(), p, chi.URLParam(r, "visitID"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toVisitResponse(v))
	}
}

// updateVisitHandler godoc
// @Summary Actualizar visita (PATCH parcial)
// @Description Solo se aplican los campos enviados. `null` limpia campos opcionales. El par isReminderEnabled/nextReminderDate se valida sobre el resultado.
// @Tags visits
// @Accept json
// @Produce json
// @Param visitID path string true "ID de la visita"
// @Param payload body UpdateRequest true "Campos a cambiar"
// @Success 200 {object} visitResponse
// @Failure 400 {object} respond.ErrorBody "validación"
// @Failure 404 {object} respond.ErrorBody "visit not found"
// @Router /visits/{visitID} [patch]
func updateVisitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeVisitsWrite)
		if err != nil {
			respond.Error(w, err)
			return
		}

		var req UpdateRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}

		in := UpdateInput{
			VisitDate:         req.VisitDate,
			Notes:             req.Notes,
			Price:             req.Price,
			WeightKg:          req.WeightKg,
			TemperatureC:      req.TemperatureC,
			HeartRate:         req.HeartRate,
			RespiratoryRate:   req.RespiratoryRate,
			IsReminderEnabled: req.IsReminderEnabled,
		}
		if req.VisitType != nil {
			vt := VisitType(*req.VisitType)
			in.VisitType = &vt
		}
		if req.NextReminderDate.Set {
			in.NextReminderDate = patch.Optional[time.Time]{Set: true, Value: req.NextReminderDate.Value.Ptr()}
		}

		v, err := svc.Update(r.Context(), p, chi.URLParam(r, "visitID"), in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toVisitResponse(v))
	}
}

func deleteVisitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeVisitsWrite)
		if err != nil {
			respond.Error(w, err)
			return
		}
		if err := svc.Delete(r.Context(), p, chi.URLParam(r, "visitID")); err != nil {
			respond.Error(w, err)
			return
		}
		respond.NoContent(w)
	}
}

func parseListFilter(r *http.Request) (pagination.Query, ListFilter, error) {
	q, err := pagination.FromRequest(r, visitFilterKeys...)
	if err != nil {
		return pagination.Query{}, ListFilter{}, err
	}
	f := ListFilter{
		Page:     q,
		Search:   q.Search,
		ClinicID: q.Filter("clinicId"),
		PetID:    q.Filter("petId"),
	}
	if raw := q.Filter("visitType"); raw != "" {
		vt, ok := ParseVisitType(raw)
		if !ok {
			return pagination.Query{}, ListFilter{}, apperr.NewValidation("visitType", "is not a valid visittype")
		}
		f.VisitType = vt
	}
	if raw := q.Filter("dateFrom"); raw != "" {
		d, err := patch.ParseDate(raw)
		if err != nil {
			return pagination.Query{}, ListFilter{}, apperr.NewValidation("dateFrom", err.Error())
		}
		f.From = d.Ptr()
	}
	if raw := q.Filter("dateTo"); raw != "" {
		d, err := patch.ParseDate(raw)
		if err != nil {
			return pagination.Query{}, ListFilter{}, apperr.NewValidation("dateTo", err.Error())
		}
		// inclusive: hasta el fin de ese día
		end := d.AddDate(0, 0, 1)
		f.To = &end
	}
	return q, f, nil
}

func toVisitResponse(v Visit) visitResponse {
	return visitResponse{
		ID:                v.ID,
		ClinicID:          v.ClinicID,
		PetID:             v.PetID,
		VisitDate:         v.VisitDate,
		VisitType:         v.VisitType,
		Notes:             v.Notes,
		Price:             v.Price,
		Vitals:            vitalsPayload(v.Vitals),
		IsReminderEnabled: v.IsReminderEnabled,
		NextReminderDate:  patch.DateOf(v.NextReminderDate),
		ReminderSent:      v.ReminderSent,
		CreatedBy:         v.CreatedBy,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}
