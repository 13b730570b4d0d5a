package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hynox/vox/internal/services/chat"
	"github.com/hynox/vox/internal/services/chat/models"
	"github.com/hynox/vox/pkg/httpext"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply models.Message `json:"reply"`
	State string         `json:"state"`
}

// HandleChatQuery submits one typed query and returns the assistant reply.
// The dispatch is synchronous; voice channel clients see the same reply as
// a message frame.
func HandleChatQuery(chatController *chat.Controller, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpext.JsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := chatController.Submit(r.Context(), req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyQuery):
		httpext.JsonError(w, "Message must not be empty", http.StatusBadRequest)
		return
	case errors.Is(err, chat.ErrDispatchInFlight):
		httpext.JsonError(w, "A query is already in flight", http.StatusTooManyRequests)
		return
	case errors.Is(err, chat.ErrNotConnected):
		// The connect notice was appended to the transcript; surface it as
		// the reply so the client renders it like any assistant message.
	case err != nil:
		httpext.JsonError(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	httpext.Json(w, http.StatusOK, chatResponse{
		Reply: reply,
		State: chatController.State().String(),
	})
}

// HandleChatMessages returns the transcript, welcome message included.
func HandleChatMessages(chatController *chat.Controller, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpext.JsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	httpext.Json(w, http.StatusOK, map[string]interface{}{
		"messages": chatController.Messages(),
		"state":    chatController.State().String(),
	})
}
