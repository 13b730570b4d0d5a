// Package handlers holds the v1 HTTP handlers for the voice chat gateway.
package handlers

import (
	"net/http"

	"github.com/hynox/vox/internal/config"
	"github.com/hynox/vox/internal/logger"
	"github.com/hynox/vox/internal/services/chat"
	"github.com/hynox/vox/internal/services/connection"
	"github.com/hynox/vox/pkg/httpext"
)

// HandleConnect manages the linked data file. POST uploads a file and
// connects it, DELETE disconnects, GET reports the restored state.
func HandleConnect(connectionService *connection.Service, chatController *chat.Controller, w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		handleUpload(connectionService, chatController, w, r)
	case http.MethodDelete:
		handleDisconnect(connectionService, chatController, w, r)
	case http.MethodGet:
		handleCurrent(connectionService, w, r)
	default:
		httpext.JsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleUpload(connectionService *connection.Service, chatController *chat.Controller, w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.GetMaxUploadBytes()); err != nil {
		httpext.JsonError(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpext.JsonError(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	state, err := connectionService.Connect(r.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		logger.Warn(logger.HANDLER, "File connect rejected: %v", err)
		httpext.JsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	chatController.SetConnection(state.FileURL, state.FileName)
	httpext.Json(w, http.StatusOK, state)
}

func handleDisconnect(connectionService *connection.Service, chatController *chat.Controller, w http.ResponseWriter, r *http.Request) {
	// The durable record is cleared even when the storage delete fails, so
	// the session always comes back disconnected.
	if err := connectionService.Disconnect(r.Context()); err != nil {
		logger.Warn(logger.HANDLER, "Stored object removal failed on disconnect: %v", err)
	}

	chatController.Disconnect()
	httpext.Json(w, http.StatusOK, &connection.State{})
}

func handleCurrent(connectionService *connection.Service, w http.ResponseWriter, r *http.Request) {
	state, err := connectionService.Current(r.Context())
	if err != nil {
		httpext.JsonError(w, "Failed to read connection state", http.StatusInternalServerError)
		return
	}
	httpext.Json(w, http.StatusOK, state)
}
