package visualizer

import (
	"sync"
)

// PCMAnalyser derives coarse band magnitudes from the most recent
// time-domain chunk: the chunk is split into BinCount segments and each
// bin reports the segment's mean absolute amplitude scaled to 0-255. That
// is enough for bar feedback without a spectral transform.
type PCMAnalyser struct {
	mu   sync.Mutex
	bins []byte
}

func NewPCMAnalyser(binCount int) *PCMAnalyser {
	if binCount <= 0 {
		binCount = remoteBinCount
	}
	return &PCMAnalyser{bins: make([]byte, binCount)}
}

// Push ingests a 16-bit little-endian PCM chunk, replacing the previous
// bin magnitudes. Odd trailing bytes are ignored.
func (a *PCMAnalyser) Push(pcm []byte) {
	sampleCount := len(pcm) / 2
	if sampleCount == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	binCount := len(a.bins)
	for bin := 0; bin < binCount; bin++ {
		start := bin * sampleCount / binCount
		end := (bin + 1) * sampleCount / binCount
		if end <= start {
			a.bins[bin] = 0
			continue
		}

		var sum int64
		for i := start; i < end; i++ {
			sample := int(int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8))
			if sample < 0 {
				sample = -sample
			}
			sum += int64(sample)
		}

		mean := sum / int64(end-start)
		a.bins[bin] = byte(mean * 255 / 32767)
	}
}

func (a *PCMAnalyser) BinCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bins)
}

func (a *PCMAnalyser) FrequencyData(buf []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	copy(buf, a.bins)
}

// Disconnect zeroes the bins; subsequent frames render silence.
func (a *PCMAnalyser) Disconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.bins {
		a.bins[i] = 0
	}
}
