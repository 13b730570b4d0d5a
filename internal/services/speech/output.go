package speech

import (
	"github.com/hynox/vox/internal/logger"
)

// Output speaks assistant text aloud, one utterance at a time. A new Speak
// always cancels whatever is queued or playing first, so newer text preempts
// older. When no synthesizer exists in the environment every call is a
// logged no-op.
//
// Output holds no lock of its own: synthesis can block for the length of a
// network call, and Cancel must be able to cut it short at any time. The
// synthesizer serializes its own cancellation.
type Output struct {
	synth Synthesizer
}

// NewOutput wraps a synthesizer. synth may be nil.
func NewOutput(synth Synthesizer) *Output {
	return &Output{synth: synth}
}

// Speak voices the given text at neutral rate, pitch and volume. Never
// returns an error to the caller; synthesis failures are logged.
func (o *Output) Speak(text string) {
	if o.synth == nil {
		logger.Warn(logger.SYNTH, "Speech synthesis not supported, skipping utterance")
		return
	}

	o.synth.Cancel()

	err := o.synth.Speak(Utterance{
		Text:   text,
		Rate:   1,
		Pitch:  1,
		Volume: 1,
	})
	if err != nil {
		logger.Warn(logger.SYNTH, "Speech synthesis failed: %v", err)
	}
}

// Cancel silences any queued or playing utterance, including one a
// concurrent Speak is still waiting on.
func (o *Output) Cancel() {
	if o.synth == nil {
		return
	}
	o.synth.Cancel()
}
