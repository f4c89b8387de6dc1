package owners

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/respond"
)

// RegisterRoutes monta /owners. sub agrega rutas bajo /owners/{ownerID}
// (p.ej. las mascotas del dueño) sin que owners importe pets.
func RegisterRoutes(r chi.Router, svc *Service, sub ...func(chi.Router)) {
	r.Route("/owners", func(or chi.Router) {
		or.Get("/", listOwnersHandler(svc))
		or.Post("/", createOwnerHandler(svc))

		or.Route("/{ownerID}", func(ir chi.Router) {
			ir.Get("/", getOwnerHandler(svc))
			ir.Patch("/", updateOwnerHandler(svc))
			ir.Delete("/", deleteOwnerHandler(svc))

			for _, mount := range sub {
				mount(ir)
			}
		})
	})
}

type createOwnerRequest struct {
	ClinicID                string `json:"clinicId"`
	FirstName               string `json:"firstName" validate:"required,notblank,max=100"`
	LastName                string `json:"lastName" validate:"max=100"`
	Phone                   string `json:"phone" validate:"required,notblank,max=50"`
	Email                   string `json:"email" validate:"omitempty,email"`
	Address                 string `json:"address" validate:"max=300"`
	AllowAutomatedReminders bool   `json:"allowAutomatedReminders"`
}

type updateOwnerRequest struct {
	FirstName               *string `json:"firstName" validate:"omitempty,notblank,max=100"`
	LastName                *string `json:"lastName" validate:"omitempty,max=100"`
	Phone                   *string `json:"phone" validate:"omitempty,notblank,max=50"`
	Email                   *string `json:"email" validate:"omitempty,email"`
	Address                 *string `json:"address" validate:"omitempty,max=300"`
	AllowAutomatedReminders *bool   `json:"allowAutomatedReminders"`
}

type ownerResponse struct {
	ID        string `json:"id"`
	ClinicID  string `json:"clinicId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`

	AllowAutomatedReminders bool `json:"allowAutomatedReminders"`
	// RemindersEffective = opt-in del dueño && kill switch de la clínica.
	RemindersEffective bool `json:"remindersEffective"`

	CreatedBy string    `json:"createdBy"`
	UpdatedBy string    `json:"updatedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// listOwnersHandler godoc
// @Summary  Lista dueños de la clínica
// @Tags     owners
// @Produce  json
// @Param    page      query  int     false  "Página (>=1)"
// @Param    limit     query  int     false  "10, 20, 50 o 100"
// @Param    search    query  string  false  "Nombre, teléfono o email"
// @Param    clinicId  query  string  false  "Solo ADMIN"
// @Success  200  {object}  pagination.Page[ownerResponse]
// @Router   /owners [get]
func listOwnersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeClinicsRead)
		if err != nil {
			respond.Error(w, err)
			return
		}
		q, err := pagination.FromRequest(r, "clinicId")
		if err != nil {
			respond.Error(w, err)
			return
		}

		res, err := svc.List(r.Context(), p, ListFilter{Page: q, Search: q.Search, ClinicID: q.Filter("clinicId")})
		if err != nil {
			respond.Error(w, err)
			return
		}

		resolver := svc.NewEffectiveResolver()
		out := make([]ownerResponse, 0, len(res.Items))
		for _, o := range res.Items {
			eff, err := resolver.Resolve(r.Context(), o)
			if err != nil {
				respond.Error(w, err)
				return
			}
			out = append(out, toOwnerResponse(o, eff))
		}
		respond.JSON(w, http.StatusOK, pagination.NewPage(out, res.TotalCount, q))
	}
}

func createOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeOwnersWrite)
		if err != nil {
			respond.Error(w, err)
			return
		}

		var req createOwnerRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}

		o, err := svc.Create(r.Context(), p, CreateInput{
			ClinicID:                req.ClinicID,
			FirstName:               req.FirstName,
			LastName:                req.LastName,
			Phone:                   req.Phone,
			Email:                   req.Email,
			Address:                 req.Address,
			AllowAutomatedReminders: req.AllowAutomatedReminders,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		writeOwner(w, r, svc, http.StatusCreated, o)
	}
}

func getOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeClinicsRead)
		if err != nil {
			respond.Error(w, err)
			return
		}
		o, err := svc.Get(r.Context(), p, chi.URLParam(r, "ownerID"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		writeOwner(w, r, svc, http.StatusOK, o)
	}
}

func updateOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeOwnersWrite)
		if err != nil {
			respond.Error(w, err)
			return
		}

		var req updateOwnerRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}

		o, err := svc.Update(r.Context(), p, chi.URLParam(r, "ownerID"), UpdateInput{
			FirstName:               req.FirstName,
			LastName:                req.LastName,
			Phone:                   req.Phone,
			Email:                   req.Email,
			Address:                 req.Address,
			AllowAutomatedReminders: req.AllowAutomatedReminders,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		writeOwner(w, r, svc, http.StatusOK, o)
	}
}

func deleteOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeOwnersDelete)
		if err != nil {
			respond.Error(w, err)
			return
		}
		if err := svc.Delete(r.Context(), p, chi.URLParam(r, "ownerID")); err != nil {
			respond.Error(w, err)
			return
		}
		respond.NoContent(w)
	}
}

func writeOwner(w http.ResponseWriter, r *http.Request, svc *Service, status int, o Owner) {
	eff, err := svc.RemindersEffective(r.Context(), o)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, status, toOwnerResponse(o, eff))
}

func toOwnerResponse(o Owner, effective bool) ownerResponse {
	return ownerResponse{
		ID:                      o.ID,
		ClinicID:                o.ClinicID,
		FirstName:               o.FirstName,
		LastName:                o.LastName,
		FullName:                o.FullName(),
		Phone:                   o.Phone,
		Email:                   o.Email,
		Address:                 o.Address,
		AllowAutomatedReminders: o.AllowAutomatedReminders,
		RemindersEffective:      effective,
		CreatedBy:               o.CreatedBy,
		UpdatedBy:               o.UpdatedBy,
		CreatedAt:               o.CreatedAt,
		UpdatedAt:               o.UpdatedAt,
	}
}
