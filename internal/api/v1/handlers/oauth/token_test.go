package oauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hynox/vox/internal/services/oauth"
)

func postToken(t *testing.T, sessions *oauth.SessionStore, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/v1/oauth/token", strings.NewReader(body))
	w := httptest.NewRecorder()
	HandleToken(sessions, w, r)
	return w
}

func TestAnonymousGrantIssuesTokenPair(t *testing.T) {
	sessions := oauth.NewSessionStore()

	w := postToken(t, sessions, `{"grant_type": "anonymous"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int(oauth.TokenLifetime.Seconds()), resp.ExpiresIn)

	validation := oauth.ValidateToken(resp.AccessToken)
	assert.True(t, validation.Valid)
	assert.Equal(t, oauth.GrantTypeAnonymous, validation.GrantType)
}

func TestRefreshGrantRotatesSession(t *testing.T) {
	sessions := oauth.NewSessionStore()

	w := postToken(t, sessions, `{"grant_type": "anonymous"}`)
	var first TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&first))

	w = postToken(t, sessions, `{"grant_type": "refresh_token", "refresh_token": "`+first.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var second TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&second))
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The spent refresh token no longer works.
	w = postToken(t, sessions, `{"grant_type": "refresh_token", "refresh_token": "`+first.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenRejectsBadRequests(t *testing.T) {
	sessions := oauth.NewSessionStore()

	assert.Equal(t, http.StatusBadRequest, postToken(t, sessions, `{"grant_type": "password"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postToken(t, sessions, `not json`).Code)
	assert.Equal(t, http.StatusUnauthorized, postToken(t, sessions, `{"grant_type": "refresh_token", "refresh_token": "bogus"}`).Code)

	r := httptest.NewRequest(http.MethodGet, "/v1/oauth/token", nil)
	w := httptest.NewRecorder()
	HandleToken(sessions, w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
