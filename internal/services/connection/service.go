// Package connection manages the user's linked data file: validated upload
// to object storage, removal, and the durable two-key record that lets a
// connection survive a page reload.
package connection

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hynox/vox/internal/config"
	"github.com/hynox/vox/internal/infrastructure/redis"
	"github.com/hynox/vox/internal/logger"
)

// State is the restored or freshly created connection.
// Connected is true iff both fields are present.
type State struct {
	FileURL   string `json:"file_url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	Connected bool   `json:"connected"`
}

// Uploader is the object-storage collaborator.
type Uploader interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) error
	Remove(ctx context.Context, path string) error
	PublicURL(path string) string
}

type Service struct {
	store    RecordStore
	uploader Uploader
	prefix   string
	exts     []string
	maxBytes int64
}

// NewService builds the connection manager. Records go to Redis when it is
// reachable, memory otherwise.
func NewService(redisService *redis.Service, uploader Uploader) *Service {
	var store RecordStore
	if redisService != nil && redisService.Ping(context.Background()) == nil {
		store = &RedisStore{redisService: redisService}
	} else {
		store = NewMemoryStore()
	}

	return &Service{
		store:    store,
		uploader: uploader,
		prefix:   config.GetStoragePrefix(),
		exts:     config.GetUploadExtensions(),
		maxBytes: config.GetMaxUploadBytes(),
	}
}

// NewServiceWithStore is the injectable constructor used by tests.
func NewServiceWithStore(store RecordStore, uploader Uploader) *Service {
	return &Service{
		store:    store,
		uploader: uploader,
		prefix:   config.GetStoragePrefix(),
		exts:     config.GetUploadExtensions(),
		maxBytes: config.GetMaxUploadBytes(),
	}
}

// Connect validates and uploads a data file, persists the record and
// returns the connected state. Existing objects at the same path are
// overwritten.
func (s *Service) Connect(ctx context.Context, fileName, contentType string, size int64, body io.Reader) (*State, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("file storage is not configured")
	}

	if err := s.validate(fileName, size); err != nil {
		return nil, err
	}

	path := s.objectPath(fileName)
	if err := s.uploader.Upload(ctx, path, contentType, body); err != nil {
		logger.Error(logger.CONNECT, "Upload failed for %s: %v", fileName, err)
		return nil, fmt.Errorf("error uploading file: %v", err)
	}

	fileURL := s.uploader.PublicURL(path)

	if err := s.store.Set(ctx, recordKeyFileURL, fileURL); err != nil {
		return nil, fmt.Errorf("error saving connection record: %v", err)
	}
	if err := s.store.Set(ctx, recordKeyFileName, fileName); err != nil {
		return nil, fmt.Errorf("error saving connection record: %v", err)
	}

	logger.Info(logger.CONNECT, "Connected data file %s", fileName)

	return &State{FileURL: fileURL, FileName: fileName, Connected: true}, nil
}

// Disconnect deletes the stored object and clears the durable record. The
// record is cleared even when the storage delete fails, so a dangling
// object never wedges the user in a half-connected state.
func (s *Service) Disconnect(ctx context.Context) error {
	fileName, err := s.store.Get(ctx, recordKeyFileName)
	if err != nil {
		return fmt.Errorf("error reading connection record: %v", err)
	}

	var removeErr error
	if fileName != "" && s.uploader != nil {
		if err := s.uploader.Remove(ctx, s.objectPath(fileName)); err != nil {
			logger.Error(logger.CONNECT, "Error removing file from storage: %v", err)
			removeErr = fmt.Errorf("error removing file: %v", err)
		}
	}

	if err := s.store.Clear(ctx, recordKeyFileURL); err != nil {
		return fmt.Errorf("error clearing connection record: %v", err)
	}
	if err := s.store.Clear(ctx, recordKeyFileName); err != nil {
		return fmt.Errorf("error clearing connection record: %v", err)
	}

	logger.Info(logger.CONNECT, "Disconnected data file %s", fileName)
	return removeErr
}

// Current restores the connection state from the durable record. A partial
// record (one key present, one absent) reads as not connected.
func (s *Service) Current(ctx context.Context) (*State, error) {
	fileURL, err := s.store.Get(ctx, recordKeyFileURL)
	if err != nil {
		return nil, fmt.Errorf("error reading connection record: %v", err)
	}
	fileName, err := s.store.Get(ctx, recordKeyFileName)
	if err != nil {
		return nil, fmt.Errorf("error reading connection record: %v", err)
	}

	if fileURL == "" || fileName == "" {
		return &State{}, nil
	}

	return &State{FileURL: fileURL, FileName: fileName, Connected: true}, nil
}

func (s *Service) validate(fileName string, size int64) error {
	ext := strings.ToLower(strings.TrimPrefix(fileExtension(fileName), "."))

	allowed := false
	for _, e := range s.exts {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("please upload a valid Excel file (.%s)", strings.Join(s.exts, ", ."))
	}

	if size > s.maxBytes {
		return fmt.Errorf("file exceeds the %d MB upload limit", s.maxBytes/(1024*1024))
	}

	return nil
}

func (s *Service) objectPath(fileName string) string {
	return s.prefix + "/" + fileName
}

func fileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx:]
}
