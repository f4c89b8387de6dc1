package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "vet-clinic/docs"
	mem "vet-clinic/internal/adapters/storage/memory"
	pg "vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/domain/clinics"
	"vet-clinic/internal/domain/dashboard"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/pets"
	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/middleware"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/ports/auth"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Services ya armados (cmd/api los comparte con el job). Tiene prioridad sobre DB.
	Services *Services

	Logger      logger.Logger
	CORSOrigins []string
}

// Services agrupa los servicios por módulo ya cableados entre sí.
type Services struct {
	Clinics   *clinics.Service
	Users     *users.Service
	Owners    *owners.Service
	Pets      *pets.Service
	Visits    *visits.Service
	Dashboard *dashboard.Service
}

// NewServices arma repos (Postgres si db != nil, si no in-memory) y servicios.
func NewServices(db *sql.DB) *Services {
	var (
		clinicRepo clinics.Repository
		userRepo   users.Repository
		ownerRepo  owners.Repository
		petRepo    pets.Repository
		visitRepo  visits.Repository
	)
	if db != nil {
		clinicRepo = pg.NewClinicsRepo(db)
		userRepo = pg.NewUsersRepo(db)
		ownerRepo = pg.NewOwnersRepo(db)
		petRepo = pg.NewPetsRepo(db)
		visitRepo = pg.NewVisitsRepo(db)
	} else {
		clinicRepo = mem.NewClinicRepo()
		userRepo = mem.NewUserRepo()
		ownerRepo = mem.NewOwnerRepo()
		petRepo = mem.NewPetRepo()
		visitRepo = mem.NewVisitRepo()
	}

	clinicsSvc := clinics.NewService(clinicRepo)
	ownersSvc := owners.NewService(ownerRepo, clinicsSvc)
	petsSvc := pets.NewService(petRepo, ownersSvc)
	visitsSvc := visits.NewService(visitRepo, petsSvc)
	usersSvc := users.NewService(userRepo, clinicsSvc)

	// Cascadas: clinic -> users, owners -> pets -> visits
	clinicsSvc.SetRemovers(usersSvc, ownersSvc)
	ownersSvc.SetPetRemover(petsSvc)
	petsSvc.SetVisitRemover(visitsSvc)

	return &Services{
		Clinics:   clinicsSvc,
		Users:     usersSvc,
		Owners:    ownersSvc,
		Pets:      petsSvc,
		Visits:    visitsSvc,
		Dashboard: dashboard.NewService(ownersSvc, petsSvc, visitsSvc, clinicsSvc),
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	svc := opts.Services
	if svc == nil {
		svc = NewServices(opts.DB)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.Recover(log))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   append([]string{"Accept", "Authorization", "Content-Type"}, middleware.DebugHeaders...),
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Rutas por módulo. Los sub-montajes evitan que owners/pets importen a sus hijos.
	clinics.RegisterRoutes(r, svc.Clinics)
	users.RegisterRoutes(r, svc.Users)
	owners.RegisterRoutes(r, svc.Owners, pets.OwnerRoutes(svc.Pets))
	pets.RegisterRoutes(r, svc.Pets, visits.PetRoutes(svc.Visits))
	visits.RegisterRoutes(r, svc.Visits)
	dashboard.RegisterRoutes(r, svc.Dashboard)

	return r
}
