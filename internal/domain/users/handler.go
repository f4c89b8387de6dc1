package users

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/respond"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users", func(ur chi.Router) {
		ur.Get("/", listUsersHandler(svc))
		ur.Post("/", createUserHandler(svc))
		ur.Get("/{userID}", getUserHandler(svc))
		ur.Patch("/{userID}", updateUserHandler(svc))
		ur.Delete("/{userID}", deleteUserHandler(svc))
	})

	// Vista de sesión del usuario actual
	r.Get("/me", meHandler(svc))
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,role"`
	ClinicID string `json:"clinicId"`
	IsActive *bool  `json:"isActive"`
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role" validate:"omitempty,role"`
	ClinicID *string `json:"clinicId"`
	IsActive *bool   `json:"isActive"`
}

type userResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      access.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	ClinicID  *string     `json:"clinicId"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// listUsersHandler godoc
// @Summary  Lista usuarios
// @Tags     users
// @Produce  json
// @Param    page      query  int     false  "Página (>=1)"
// @Param    limit     query  int     false  "10, 20, 50 o 100"
// @Param    search    query  string  false  "Busca por email o nombre"
// @Param    role      query  string  false  "ADMIN | CLINIC_ADMIN | STAFF | ALL"
// @Param    status    query  string  false  "ACTIVE | INACTIVE | ALL"
// @Param    clinicId  query  string  false  "Solo ADMIN"
// @Success  200  {object}  pagination.LegacyPage[userResponse]
// @Router   /users [get]
func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeUsersManage)
		if err != nil {
			respond.Error(w, err)
			return
		}

		q, err := pagination.FromRequest(r, "role", "status", "clinicId")
		if err != nil {
			respond.Error(w, err)
			return
		}

		f := ListFilter{Page: q, Search: q.Search, ClinicID: q.Filter("clinicId")}
		if raw := q.Filter("role"); raw != "" {
			role, ok := access.ParseRole(raw)
			if !ok {
				respond.Error(w, apperr.NewValidation("role", "must be ADMIN, CLINIC_ADMIN, STAFF or ALL"))
				return
			}
			f.Role = role
		}
		switch strings.ToUpper(q.Filter("status")) {
		case "":
		case "ACTIVE":
			active := true
			f.Active = &active
		case "INACTIVE":
			active := false
			f.Active = &active
		default:
			respond.Error(w, apperr.NewValidation("status", "must be ACTIVE, INACTIVE or ALL"))
			return
		}

		res, err := svc.List(r.Context(), p, f)
		if err != nil {
			respond.Error(w, err)
			return
		}
		out := pagination.Map(res, toUserResponse)
		respond.JSON(w, http.StatusOK, pagination.NewLegacyPage(out.Items, out.TotalCount, q))
	}
}

func createUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeUsersManage)
		if err != nil {
			respond.Error(w, err)
			return
		}

		var req createUserRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}

		u, err := svc.Create(r.Context(), p, CreateInput{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
			Role:     access.Role(req.Role),
			ClinicID: req.ClinicID,
			IsActive: req.IsActive,
		})
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, toUserResponse(u))
	}
}

func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeUsersManage)
		if err != nil {
			respond.Error(w, err)
			return
		}
		u, err := svc.Get(r.Context(), p, chi.URLParam(r, "userID"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toUserResponse(u))
	}
}

func updateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeUsersManage)
		if err != nil {
			respond.Error(w, err)
			return
		}

		var req updateUserRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, err)
			return
		}

		in := UpdateInput{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
			ClinicID: req.ClinicID,
			IsActive: req.IsActive,
		}
		if req.Role != nil {
			role := access.Role(*req.Role)
			in.Role = &role
		}

		u, err := svc.Update(r.Context(), p, chi.URLParam(r, "userID"), in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, toUserResponse(u))
	}
}

func deleteUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeUsersManage)
		if err != nil {
			respond.Error(w, err)
			return
		}
		if err := svc.Delete(r.Context(), p, chi.URLParam(r, "userID")); err != nil {
			respond.Error(w, err)
			return
		}
		respond.NoContent(w)
	}
}

// meHandler godoc
// @Summary  Usuario actual y capacidades de su clínica
// @Tags     users
// @Produce  json
// @Success  200  {object}  Me
// @Failure  401  {object}  respond.ErrorBody
// @Router   /me [get]
func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.FromContext(r.Context())
		if err != nil {
			respond.Error(w, err)
			return
		}
		me, err := svc.Me(r.Context(), p)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, me)
	}
}

func toUserResponse(u User) userResponse {
	var clinicID *string
	if u.ClinicID != "" {
		id := u.ClinicID
		clinicID = &id
	}
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		ClinicID:  clinicID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
