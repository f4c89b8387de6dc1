package pets

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

// RegisterRoutes monta /pets. sub agrega rutas bajo /pets/{petID} (visitas).
func RegisterRoutes(r chi.Router, svc *Service, sub ...func(chi.Router)) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		pr.Route("/{petID}", func(ir chi.Router) {
			// Búsqueda directa por id
			ir.Get("/", getPetHandler(svc))
			ir.Patch("/", updatePetHandler(svc))
			ir.Delete("/", deletePetHandler(svc))

			for _, mount := range sub {
				mount(ir)
			}
		})
	})
}

// OwnerRoutes agrega GET /owners/{ownerID}/pets.
func OwnerRoutes(svc *Service) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/pets", listOwnerPetsHandler(svc))
	}
}

var petFilterKeys = []string{"species", "ownerId", "clinicId"}

type createPetRequest struct {
	OwnerID   string      `json:"ownerId" validate:"required"`
	Name      string      `json:"name" validate:"required,notblank,max=100"`
	Species   string      `json:"species" validate:"required,species"`
	Breed     string      `json:"breed" validate:"max=100"`
	Gender    string      `json:"gender" validate:"omitempty,gender"`
	BirthDate *patch.Date `json:"birthDate"` // YYYY-MM-DD opcional
	Notes     string      `json:"notes" validate:"max=2000"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	OwnerID *string `json:"ownerId" validate:"omitempty,notblank"`
	Name    *string `json:"name" validate:"omitempty,notblank,max=100"`
	Species *string `json:"species" validate:"omitempty,species"`
	Breed   *string `json:"breed" validate:"omitempty,max=100"`
	Gender  *string `json:"gender" validate:"omitempty,gender"`
	// birthDate: null limpia la fecha.
	BirthDate patch.Optional[patch.Date] `json:"birthDate"`
	Notes     *string                    `json:"notes" validate:"omitempty,max=2000"`
}

type petResponse struct {
	ID        string      `json:"id"`
	ClinicID  string      `json:"clinicId"`
	OwnerID   string      `json:"ownerId"`
	Name      string      `json:"name"`
	Species   Species     `json:"species"`
	Breed     string      `json:"breed"`
	Gender    Gender      `json:"gender"`
	BirthDate *patch.Date `json:"birthDate"`
	Notes     string      `json:"notes"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopePetsWrite)
		if err != nil {
			respond.Error(w, err)
			return
		}

		var req createPetRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}

		pet, err := svc.Create(r.Context(), p, CreateInput{
			OwnerID:   req.OwnerID,
			Name:      req.Name,
			Species:   Species(req.Species),
			Breed:     req.Breed,
			Gender:    Gender(req.Gender),
			BirthDate: req.BirthDate.Ptr(),
			Notes:     req.Notes,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toPetResponse(pet))
	}
}

// listPetsHandler godoc
// @Summary  Lista mascotas
// @Tags     pets
// @Produce  json
// @Param    page     query  int     false  "Página (>=1)"
// @Param    limit    query  int     false  "10, 20, 50 o 100"
// @Param    search   query  string  false  "Nombre o raza"
// @Param    species  query  string  false  "dog | cat | bird | rabbit | reptile | other | ALL"
// @Param    ownerId  query  string  false  "Dueño"
// @Success  200  {object}  pagination.Page[petResponse]
// @Router   /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
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
		out := pagination.Map(res, toPetResponse)
		respond.JSON(w, http.StatusOK, pagination.NewPage(out.Items, out.TotalCount, q))
	}
}

func listOwnerPetsHandler(svc *Service) http.HandlerFunc {
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

		res, err := svc.ListByOwner(r.Context(), p, chi.URLParam(r, "ownerID"), f)
		if err != nil {
			respond.Error(w, err)
			return
		}
		out := pagination.Map(res, toPetResponse)
		respond.JSON(w, http.StatusOK, pagination.NewPage(out.Items, out.TotalCount, q))
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeClinicsRead)
		if err != nil {
			respond.Error(w, err)
			return
		}
		pet, err := svc.Get(r.Context(), p, chi.URLParam(r, "petID"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toPetResponse(pet))
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopePetsWrite)
		if err != nil {
			respond.Error(w, err)
			return
		}

		var req updatePetRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}

		in := UpdateInput{
			OwnerID: req.OwnerID,
			Name:    req.Name,
			Breed:   req.Breed,
			Notes:   req.Notes,
		}
		if req.Species != nil {
			sp := Species(*req.Species)
			in.Species = &sp
		}
		if req.Gender != nil {
			g := Gender(*req.Gender)
			in.Gender = &g
		}
		if req.BirthDate.Set {
			in.BirthDate = patch.Optional[time.Time]{Set: true, Value: req.BirthDate.Value.Ptr()}
		}

		updated, err := svc.Update(r.Context(), p, chi.URLParam(r, "petID"), in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopePetsWrite)
		if err != nil {
			respond.Error(w, err)
			return
		}
		if err := svc.Delete(r.Context(), p, chi.URLParam(r, "petID")); err != nil {
			respond.Error(w, err)
			return
		}
		respond.NoContent(w)
	}
}

func parseListFilter(r *http.Request) (pagination.Query, ListFilter, error) {
	q, err := pagination.FromRequest(r, petFilterKeys...)
	if err != nil {
		return pagination.Query{}, ListFilter{}, err
	}
	f := ListFilter{
		Page:     q,
		Search:   q.Search,
		ClinicID: q.Filter("clinicId"),
		OwnerID:  q.Filter("ownerId"),
	}
	if raw := q.Filter("species"); raw != "" {
		sp, ok := ParseSpecies(raw)
		if !ok {
			return pagination.Query{}, ListFilter{}, apperr.NewValidation("species", "is invalid")
		}
		f.Species = sp
	}
	return q, f, nil
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:        p.ID,
		ClinicID:  p.ClinicID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Gender:    p.Gender,
		BirthDate: patch.DateOf(p.BirthDate),
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
