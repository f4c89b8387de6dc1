package dashboard

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vet-clinic/internal/domain/access"
	"vet-clinic/internal/platform/respond"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/dashboard/stats", statsHandler(svc))
}

// statsHandler godoc
// @Summary  Contadores del dashboard
// @Tags     dashboard
// @Produce  json
// @Param    clinicId  query  string  false  "Solo ADMIN; vacío = todo el sistema"
// @Success  200  {object}  Stats
// @Failure  403  {object}  respond.ErrorBody
// @Router   /dashboard/stats [get]
func statsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := access.Require(r.Context(), access.ScopeDashboardRead)
		if err != nil {
			respond.Error(w, err)
			return
		}
		st, err := svc.Stats(r.Context(), p, strings.TrimSpace(r.URL.Query().Get("clinicId")))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, st)
	}
}
