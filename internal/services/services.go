package services

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hynox/vox/internal/connections"
	openaiinfra "github.com/hynox/vox/internal/infrastructure/openai"
	"github.com/hynox/vox/internal/infrastructure/queryapi"
	"github.com/hynox/vox/internal/infrastructure/redis"
	"github.com/hynox/vox/internal/infrastructure/supabase"
	"github.com/hynox/vox/internal/services/chat"
	"github.com/hynox/vox/internal/services/connection"
	"github.com/hynox/vox/internal/services/oauth"
	"github.com/hynox/vox/internal/services/speech"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

type Services struct {
	redisService      *redis.Service
	supabaseService   *supabase.Service
	queryAPIService   *queryapi.Service
	openAIService     *openaiinfra.Service
	sessionStore      *oauth.SessionStore
	connectionService *connection.Service
	chatController    *chat.Controller
	voiceManager      *connections.Manager
	speechOutput      *speech.Output
	whisperProvider   *openaiinfra.WhisperProvider
}

// speechFrame carries one synthesized utterance to every voice channel.
type speechFrame struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

// InitializeServices initializes all required services
func InitializeServices() (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	// Optional infrastructure: each degrades to a documented fallback.
	redisService := redis.NewService()
	supabaseService := supabase.NewService()
	queryAPIService := queryapi.NewService()
	openAIService := openaiinfra.NewService()

	sessionStore := oauth.NewSessionStore()
	voiceManager := connections.NewManager(connections.DefaultTimeouts)

	// Synthesized speech fans out to every live voice channel as an MP3
	// payload; playback happens client-side.
	var synthesizer speech.Synthesizer
	if openAIService != nil {
		synthesizer = openaiinfra.NewSpeechSynthesizer(openAIService, func(audio []byte) {
			voiceManager.BroadcastJSON(speechFrame{
				Type:  "speech",
				Audio: base64.StdEncoding.EncodeToString(audio),
			})
		})
	}
	speechOutput := speech.NewOutput(synthesizer)

	whisperProvider := openaiinfra.NewWhisperProvider(openAIService)

	var uploader connection.Uploader
	if supabaseService != nil {
		uploader = supabaseService
	}
	connectionService := connection.NewService(redisService, uploader)

	var dispatcher chat.Dispatcher
	if queryAPIService != nil {
		dispatcher = queryAPIService
	}
	chatController := chat.NewController(chat.Config{
		Dispatcher: dispatcher,
		Speaker:    speechOutput,
	})

	// Restore a connection that survived a restart.
	if state, err := connectionService.Current(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Failed to restore connection state")
	} else if state.Connected {
		chatController.SetConnection(state.FileURL, state.FileName)
		log.Info().Str("file_name", state.FileName).Msg("Restored data file connection")
	}

	log.Info().Msg("All services initialized successfully")

	return &Services{
		redisService:      redisService,
		supabaseService:   supabaseService,
		queryAPIService:   queryAPIService,
		openAIService:     openAIService,
		sessionStore:      sessionStore,
		connectionService: connectionService,
		chatController:    chatController,
		voiceManager:      voiceManager,
		speechOutput:      speechOutput,
		whisperProvider:   whisperProvider,
	}, nil
}

// GetSessionStore returns the anonymous session store
func (s *Services) GetSessionStore() *oauth.SessionStore {
	return s.sessionStore
}

// GetConnectionService returns the data file connection service
func (s *Services) GetConnectionService() *connection.Service {
	return s.connectionService
}

// GetChatController returns the conversation controller
func (s *Services) GetChatController() *chat.Controller {
	return s.chatController
}

// GetVoiceManager returns the voice channel connection manager
func (s *Services) GetVoiceManager() *connections.Manager {
	return s.voiceManager
}

// GetSpeechOutput returns the spoken output service
func (s *Services) GetSpeechOutput() *speech.Output {
	return s.speechOutput
}

// GetWhisperProvider returns the recognition engine provider
func (s *Services) GetWhisperProvider() *openaiinfra.WhisperProvider {
	return s.whisperProvider
}
