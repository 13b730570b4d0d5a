package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hynox/vox/internal/config"
	"github.com/rs/zerolog/log"
)

// Service is a thin REST client for the Supabase storage API. Upload and
// remove are plain request/response calls; there is no streaming.
type Service struct {
	Client  *http.Client
	RestURL string
	Bucket  string
	Headers http.Header
}

func NewService() *Service {
	base := config.GetSupabaseURL()
	key := config.GetSupabaseAnonKey()

	if base == "" || key == "" {
		log.Warn().Msg("Supabase not configured - file storage will be unavailable")
		return nil
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+key)
	headers.Set("apikey", key)

	s := &Service{
		Client:  &http.Client{},
		RestURL: strings.TrimRight(base, "/"),
		Bucket:  config.GetStorageBucket(),
		Headers: headers,
	}

	log.Info().
		Str("bucket", s.Bucket).
		Msg("Supabase storage service initialized")

	return s
}

// SetRestURL sets the REST URL for the service
func (s *Service) SetRestURL(url string) *Service {
	s.RestURL = strings.TrimRight(url, "/")
	return s
}

// Upload stores an object at the given path within the bucket, overwriting
// any existing object at that path.
func (s *Service) Upload(ctx context.Context, path, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL(path), body)
	if err != nil {
		return err
	}

	req.Header = s.Headers.Clone()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	req.Header.Set("Cache-Control", "max-age=3600")

	resp, err := s.Client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Storage upload request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.responseError("upload", path, resp)
	}

	return nil
}

// Remove deletes the object at the given path within the bucket.
func (s *Service) Remove(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(path), nil)
	if err != nil {
		return err
	}

	req.Header = s.Headers.Clone()

	resp, err := s.Client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Storage remove request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.responseError("remove", path, resp)
	}

	return nil
}

// PublicURL returns the publicly resolvable reference for an object path.
func (s *Service) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.RestURL, s.Bucket, escapePath(path))
}

func (s *Service) objectURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.RestURL, s.Bucket, escapePath(path))
}

func (s *Service) responseError(op, path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	log.Error().
		Int("status", resp.StatusCode).
		Str("path", path).
		Str("body", string(body)).
		Msgf("Storage %s rejected", op)
	return fmt.Errorf("storage %s failed with status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}

// escapePath escapes each path segment while keeping separators intact.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
