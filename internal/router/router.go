package router

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	googleauth "meliapp/internal/adapters/auth/google"
	mem "meliapp/internal/adapters/storage/memory"
	pg "meliapp/internal/adapters/storage/postgres"
	"meliapp/internal/domain/accounts"
	"meliapp/internal/domain/botanical"
	"meliapp/internal/domain/lots"
	"meliapp/internal/domain/profiles"
	"meliapp/internal/middleware"
	"meliapp/internal/platform/logger"
	"meliapp/internal/ports/auth"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: si viene nil, las rutas /api/auth no se montan.
	IdentityProvider auth.IdentityProvider

	// GoogleConfigured habilita las rutas goth /auth/{provider}.
	GoogleConfigured bool

	// PublicBaseURL es la base de las URLs de perfil codificadas en los QR.
	PublicBaseURL string

	// StrictComposition rechaza composiciones cuya suma supere 100%.
	StrictComposition bool

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	publicBaseURL := opts.PublicBaseURL
	if publicBaseURL == "" {
		publicBaseURL = "http://localhost:8080"
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		lotsRepo     lots.Repository
		profilesRepo profiles.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err != nil {
				log.Warn("no se pudo abrir Postgres, usando repos en memoria", map[string]any{"error": err.Error()})
			} else {
				db = opened
			}
		}
	}

	if db != nil {
		lotsRepo = pg.NewLotsRepo(db)
		profilesRepo = pg.NewProfilesRepo(db)
	} else {
		lotsRepo = mem.NewLotsRepo()
		profilesRepo = mem.NewProfilesRepo()
	}

	// Tabla de referencia botánica embebida; si no carga es un bug de build.
	table, err := botanical.LoadTable()
	if err != nil {
		panic(err)
	}
	botanicalSvc := botanical.NewService(table)

	// Services por módulo
	lotsSvc := lots.NewService(lotsRepo, lots.Config{StrictComposition: opts.StrictComposition}, log)
	profilesSvc := profiles.NewService(profilesRepo, lotsSvc, botanicalSvc)

	// Rutas por módulo
	botanical.RegisterRoutes(r, botanicalSvc)
	lots.RegisterRoutes(r, lotsSvc, publicBaseURL)
	profiles.RegisterRoutes(r, profilesSvc, publicBaseURL)

	if opts.IdentityProvider != nil {
		accountsSvc := accounts.NewService(opts.IdentityProvider, profilesSvc, profilesSvc, log)
		accounts.RegisterRoutes(r, accountsSvc)
	}

	// OAuth directo con Google (goth), independiente del proveedor de identidad.
	if opts.GoogleConfigured {
		r.Get("/auth/{provider}", googleauth.BeginHandler())
		r.Get("/auth/{provider}/callback", googleauth.CallbackHandler(func(req *http.Request, u googleauth.User) error {
			if err := profilesSvc.EnsureUser(req.Context(), u.ID, u.Email); err != nil {
				return err
			}
			return profilesSvc.EnsureContact(req.Context(), u.ID, u.Name, "", u.Email)
		}))
	}

	return r
}
