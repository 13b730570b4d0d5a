package oauth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hynox/vox/internal/services/oauth"
	"github.com/hynox/vox/pkg/httpext"
)

type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// HandleToken issues access tokens. The anonymous grant creates a fresh
// session with no credentials; the refresh grant rotates an existing one.
func HandleToken(sessions *oauth.SessionStore, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpext.JsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.GrantType {
	case oauth.GrantTypeAnonymous:
		issueToken(w, sessions.CreateSession(), req.GrantType)
	case oauth.GrantTypeRefresh:
		session, ok := sessions.RefreshSession(req.RefreshToken)
		if !ok {
			httpext.JsonError(w, "Invalid refresh token", http.StatusUnauthorized)
			return
		}
		issueToken(w, session, req.GrantType)
	default:
		httpext.JsonError(w, "Invalid grant type", http.StatusBadRequest)
	}
}

func issueToken(w http.ResponseWriter, session oauth.Session, grantType string) {
	tokenString, err := oauth.IssueToken(session.ID, grantType)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign access token")
		httpext.JsonError(w, "Error creating token", http.StatusInternalServerError)
		return
	}

	httpext.Json(w, http.StatusOK, TokenResponse{
		AccessToken:  tokenString,
		TokenType:    "Bearer",
		ExpiresIn:    int(oauth.TokenLifetime.Seconds()),
		RefreshToken: session.RefreshToken,
	})
}
