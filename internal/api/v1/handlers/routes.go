package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	v1oauth "github.com/hynox/vox/internal/api/v1/handlers/oauth"
	"github.com/hynox/vox/internal/api/v1/handlers/voice"
	v1mware "github.com/hynox/vox/internal/api/v1/middleware"
	"github.com/hynox/vox/internal/services"
	"github.com/hynox/vox/internal/services/oauth"
)

func RegisterV1Routes(router *mux.Router, services *services.Services) {
	// v1 routes
	v1 := router.PathPrefix("/v1").Subrouter()

	// OAuth v1 routes (no auth required)
	v1oauthRouter := v1.PathPrefix("/oauth").Subrouter()
	v1oauthRouter.Handle("/token", v1mware.RateLimit("oauth_token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1oauth.HandleToken(services.GetSessionStore(), w, r)
	}))).Methods("POST")

	// Protected v1 routes (require auth)
	v1protectedRouter := v1.NewRoute().Subrouter()
	v1protectedRouter.Use(v1mware.RequireAuth([]string{oauth.GrantTypeAnonymous, oauth.GrantTypeRefresh}))

	// Data file connection routes
	v1protectedRouter.Handle("/connect", v1mware.RateLimit("connect_upload")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleConnect(services.GetConnectionService(), services.GetChatController(), w, r)
	}))).Methods("POST", "DELETE", "GET")

	// Chat routes
	v1chatRouter := v1protectedRouter.PathPrefix("/chat").Subrouter()
	v1chatRouter.Handle("", v1mware.RateLimit("chat_query")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleChatQuery(services.GetChatController(), w, r)
	}))).Methods("POST")
	v1chatRouter.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		HandleChatMessages(services.GetChatController(), w, r)
	}).Methods("GET")

	// Voice channel
	v1protectedRouter.HandleFunc("/voice/ws", func(w http.ResponseWriter, r *http.Request) {
		voice.HandleVoiceSocket(voice.Deps{
			Manager:  services.GetVoiceManager(),
			Chat:     services.GetChatController(),
			Provider: services.GetWhisperProvider(),
			Output:   services.GetSpeechOutput(),
		}, w, r)
	}).Methods("GET")
}
