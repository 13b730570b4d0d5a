package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/hynox/vox/internal/api/v1/handlers"
	"github.com/hynox/vox/internal/config"
	"github.com/hynox/vox/internal/services"
)

func main() {
	svcs, err := services.InitializeServices()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	r := setupRouter(svcs)

	addr := ":" + config.GetEnvOrDefault("PORT", "8080")
	log.Info().Str("addr", addr).Msg("Voice chat gateway listening")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("ListenAndServe error")
	}
}

func setupRouter(svcs *services.Services) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	handlers.RegisterV1Routes(r, svcs)
	return r
}
