package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fizpay/internal/auth"
	"fizpay/internal/config"
	"fizpay/internal/handlers"
	"fizpay/internal/storage"
)

func setupRouter(h *handlers.Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.CurrentSession)

		r.Get("/accounts", h.ListAccounts)
		r.Post("/accounts", h.UpsertAccount)
		r.Get("/accounts/{id}", h.GetAccount)
		r.Put("/accounts/{id}", h.UpdateAccount)
		r.Delete("/accounts/{id}", h.DeleteAccount)

		r.Get("/transactions", h.ListTransactions)
		r.Get("/transactions/{id}", h.GetTransaction)

		r.Get("/statement", h.Statement)
		r.Get("/cashback", h.Cashback)

		r.Get("/prefs/balance-visibility", h.GetBalanceVisibility)
		r.Put("/prefs/balance-visibility", h.SetBalanceVisibility)
	})

	return r
}

func main() {
	cfg := config.Load()

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if cfg.SeedDemo {
		if err := db.Seed(); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	authSvc := auth.NewService(db, &auth.MemoryCredentialStore{})
	h := handlers.NewHandlers(db, authSvc)

	addr := ":" + cfg.Port
	log.Printf("Listening on %s (db: %s)", addr, cfg.DBPath)
	if err := http.ListenAndServe(addr, setupRouter(h)); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
