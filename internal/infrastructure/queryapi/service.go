// Package queryapi is the HTTP client for the remote analysis backend that
// answers natural-language questions about the connected data file.
package queryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hynox/vox/internal/config"
	"github.com/hynox/vox/internal/services/chat/models"
	"github.com/rs/zerolog/log"
)

type Service struct {
	Client  *http.Client
	RestURL string
}

func NewService() *Service {
	url := config.GetQueryAPIURL()

	if url == "" {
		log.Warn().Msg("Query API not configured - chat dispatch will be unavailable")
		return nil
	}

	s := &Service{
		Client:  &http.Client{},
		RestURL: strings.TrimRight(url, "/"),
	}

	log.Info().
		Str("rest_url", s.RestURL).
		Msg("Query API service initialized")

	return s
}

// SetRestURL sets the REST URL for the service
func (s *Service) SetRestURL(url string) *Service {
	s.RestURL = strings.TrimRight(url, "/")
	return s
}

type queryRequest struct {
	ChatContext string `json:"chat_context"`
	FileURL     string `json:"file_url"`
}

// Query sends one question plus the connected file reference and decodes
// the structured reply. No retries; the caller bounds the call through ctx.
func (s *Service) Query(ctx context.Context, chatContext, fileURL string) (*models.StructuredResponse, error) {
	payload, err := json.Marshal(queryRequest{ChatContext: chatContext, FileURL: fileURL})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.RestURL+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Query API request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Query API rejected request")
		return nil, fmt.Errorf("query API returned status %d", resp.StatusCode)
	}

	var structured models.StructuredResponse
	if err := json.NewDecoder(resp.Body).Decode(&structured); err != nil {
		log.Error().Err(err).Msg("Failed to decode query API response")
		return nil, err
	}

	return &structured, nil
}
