package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	googleauth "meliapp/internal/adapters/auth/google"
	"meliapp/internal/adapters/auth/supabase"
	"meliapp/internal/platform/logger"
	"meliapp/internal/router"
)

func main() {
	// .env es opcional; en deploy las vars vienen del entorno.
	_ = godotenv.Load()

	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	opts := router.Options{
		PublicBaseURL:     os.Getenv("PUBLIC_BASE_URL"),
		StrictComposition: os.Getenv("STRICT_COMPOSITION") != "false",
		Logger:            log,
	}

	// Proveedor de identidad hosteado. Sin configuración queda en modo
	// dev: sin verifier y sin rutas /api/auth.
	if url := os.Getenv("SUPABASE_URL"); url != "" {
		client := supabase.NewClient(supabase.Config{
			URL:     url,
			AnonKey: os.Getenv("SUPABASE_ANON_KEY"),
		})
		opts.IdentityProvider = client
		opts.AuthVerifier = supabase.NewVerifier(client, os.Getenv("SUPABASE_JWT_SECRET"))
	} else {
		log.Warn("SUPABASE_URL no seteado: modo dev, auth deshabilitado", nil)
	}

	// OAuth directo con Google (opcional).
	if err := googleauth.Configure(googleauth.Config{
		Key:           os.Getenv("GOOGLE_KEY"),
		Secret:        os.Getenv("GOOGLE_SECRET"),
		CallbackURL:   os.Getenv("GOOGLE_CALLBACK_URL"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
	}); err == nil {
		opts.GoogleConfigured = true
	}

	r := router.NewRouter(opts)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
