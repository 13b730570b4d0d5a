package openai

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hynox/vox/internal/services/speech"
)

func TestSpeechSynthesizerDeliversAudioToSink(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	})

	var got []byte
	synth := NewSpeechSynthesizer(service, func(audio []byte) { got = audio })

	err := synth.Speak(speech.Utterance{Text: "Revenue is up.", Rate: 1, Pitch: 1, Volume: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), got)
}

func TestSpeechSynthesizerWithoutServiceErrors(t *testing.T) {
	synth := NewSpeechSynthesizer(nil, nil)
	err := synth.Speak(speech.Utterance{Text: "hi"})
	assert.ErrorIs(t, err, speech.ErrNoSynthesizer)
}

func TestSpeechSynthesizerAPIFailureSurfaces(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no capacity", http.StatusServiceUnavailable)
	})

	synth := NewSpeechSynthesizer(service, func([]byte) { t.Error("sink must not fire on failure") })
	err := synth.Speak(speech.Utterance{Text: "hi", Rate: 1})
	assert.Error(t, err)
}

func TestSpeechSynthesizerCancelWithoutSpeakIsNoOp(t *testing.T) {
	synth := NewSpeechSynthesizer(nil, nil)
	synth.Cancel()
	synth.Cancel()
}
