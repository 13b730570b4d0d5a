package openai

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hynox/vox/internal/services/speech"
)

// Audio pushed over the voice channel is 16 kHz mono 16-bit little-endian
// PCM. The recognizer wraps it in a WAV container before transcription.
const (
	wireSampleRate    = 16000
	wireChannels      = 1
	wireBitsPerSample = 16

	transcribeTimeout = 30 * time.Second
)

// WhisperProvider builds recognizers backed by the Whisper transcription
// API. Its recognizers are wire-fed: the caller pushes PCM chunks and
// signals end of utterance explicitly, and transcription happens in one
// shot when the utterance finishes.
type WhisperProvider struct {
	service *Service
}

func NewWhisperProvider(service *Service) *WhisperProvider {
	return &WhisperProvider{service: service}
}

func (p *WhisperProvider) Available() bool {
	return p != nil && p.service != nil && p.service.GetClient() != nil
}

func (p *WhisperProvider) NewRecognizer(cfg speech.RecognizerConfig) speech.Recognizer {
	return &whisperRecognizer{provider: p, cfg: cfg}
}

// whisperRecognizer buffers pushed audio until Finish, then transcribes the
// whole utterance. Continuous engagements stay open across utterances and
// never report end-of-engagement; single-shot ones end after one result.
type whisperRecognizer struct {
	provider *WhisperProvider
	cfg      speech.RecognizerConfig

	mu       sync.Mutex
	handlers speech.RecognitionHandlers
	buf      bytes.Buffer
	started  bool
}

func (r *whisperRecognizer) SetHandlers(h speech.RecognitionHandlers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = h
}

func (r *whisperRecognizer) ClearHandlers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = speech.RecognitionHandlers{}
}

func (r *whisperRecognizer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Reset()
	r.started = true
	return nil
}

func (r *whisperRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
	r.buf.Reset()
}

// PushAudio appends one PCM chunk to the pending utterance. Chunks arriving
// outside an engagement are dropped.
func (r *whisperRecognizer) PushAudio(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	r.buf.Write(chunk)
}

// Finish closes the pending utterance and transcribes it asynchronously.
func (r *whisperRecognizer) Finish() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	pcm := append([]byte(nil), r.buf.Bytes()...)
	r.buf.Reset()
	r.mu.Unlock()

	if len(pcm) == 0 {
		r.finishWithTranscript("")
		return
	}

	go r.transcribe(pcm)
}

func (r *whisperRecognizer) transcribe(pcm []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	resp, err := r.provider.service.GetClient().CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "utterance.wav",
		Reader:   bytes.NewReader(encodeWAV(pcm)),
		Language: whisperLanguage(r.cfg.Language),
	})
	if err != nil {
		log.Error().Err(err).Msg("Whisper transcription failed")
		r.mu.Lock()
		onError := r.handlers.OnError
		r.mu.Unlock()
		if onError != nil {
			onError(speech.ErrCodeNetwork)
		}
		return
	}

	r.finishWithTranscript(strings.TrimSpace(resp.Text))
}

// finishWithTranscript delivers the settled utterance. An empty transcript
// skips the result event so the owner sees a plain end-of-engagement.
func (r *whisperRecognizer) finishWithTranscript(text string) {
	r.mu.Lock()
	handlers := r.handlers
	continuous := r.cfg.Continuous
	r.mu.Unlock()

	if text != "" && handlers.OnResult != nil {
		handlers.OnResult(speech.RecognitionEvent{
			ResultIndex: 0,
			Results: []speech.RecognitionResult{
				{Transcript: text, IsFinal: true},
			},
		})
	}

	if !continuous && handlers.OnEnd != nil {
		handlers.OnEnd()
	}
}

// whisperLanguage maps a BCP 47 tag to the ISO 639-1 code Whisper expects.
func whisperLanguage(tag string) string {
	if i := strings.IndexByte(tag, '-'); i > 0 {
		return tag[:i]
	}
	return tag
}

// encodeWAV wraps raw PCM in a minimal RIFF/WAVE header.
func encodeWAV(pcm []byte) []byte {
	byteRate := wireSampleRate * wireChannels * wireBitsPerSample / 8
	blockAlign := wireChannels * wireBitsPerSample / 8

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(36+len(pcm)))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(16))
	binary.Write(&out, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&out, binary.LittleEndian, uint16(wireChannels))
	binary.Write(&out, binary.LittleEndian, uint32(wireSampleRate))
	binary.Write(&out, binary.LittleEndian, uint32(byteRate))
	binary.Write(&out, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&out, binary.LittleEndian, uint16(wireBitsPerSample))
	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(len(pcm)))
	out.Write(pcm)
	return out.Bytes()
}
