// Package audio plays short tones that accompany cue stages
//
// Audio is optional: every method is a no-op until Initialize succeeds, so hosts
// without a sound device run silently.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Stage tones climb a pentatonic scale so later stages sound brighter
var stageFreqs = []float64{261.63, 293.66, 329.63, 392.00, 440.00, 523.25}

// Chime mixes stage and completion tones onto the speaker
type Chime struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	muted       bool
}

// NewChime creates an uninitialized chime
func NewChime() *Chime {
	return &Chime{mixer: &beep.Mixer{}}
}

// Initialize opens the speaker, repeated calls are no-ops
func (c *Chime) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(c.mixer)
	c.initialized = true
	return nil
}

// Cleanup silences all tones
func (c *Chime) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}
	speaker.Lock()
	c.mixer.Clear()
	speaker.Unlock()
	c.initialized = false
}

// SetMuted suppresses playback without releasing the device
func (c *Chime) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = muted
}

// PlayStage plays the tone for the stage at index
func (c *Chime) PlayStage(index int) {
	if index < 0 {
		index = 0
	}
	freq := stageFreqs[index%len(stageFreqs)]
	c.play(NewBell(sampleRate, freq, 400*time.Millisecond))
}

// PlayComplete plays the gesture completion tone
func (c *Chime) PlayComplete() {
	tone, err := generators.SineTone(sampleRate, 880)
	if err != nil {
		return
	}
	c.play(beep.Take(sampleRate.N(60*time.Millisecond), tone))
}

// PlayTick plays a faint click used for snap points
func (c *Chime) PlayTick() {
	c.play(NewBell(sampleRate, 1760, 25*time.Millisecond))
}

func (c *Chime) play(s beep.Streamer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.muted {
		return
	}
	speaker.Lock()
	c.mixer.Add(s)
	speaker.Unlock()
}

// Bell is a decaying sine with a soft attack
type Bell struct {
	sr    beep.SampleRate
	freq  float64
	total int
	pos   int
}

// NewBell creates a bell tone of the given length
func NewBell(sr beep.SampleRate, freq float64, length time.Duration) *Bell {
	return &Bell{sr: sr, freq: freq, total: sr.N(length)}
}

// Stream implements beep.Streamer
func (b *Bell) Stream(samples [][2]float64) (n int, ok bool) {
	if b.pos >= b.total {
		return 0, false
	}
	for i := range samples {
		if b.pos >= b.total {
			return i, true
		}
		t := float64(b.pos) / float64(b.sr)

		attack := math.Min(t/0.005, 1)
		decay := math.Exp(-t * 6)
		sample := 0.25 * attack * decay * math.Sin(2*math.Pi*b.freq*t)
		// Octave partial for shimmer
		sample += 0.05 * attack * decay * math.Sin(4*math.Pi*b.freq*t)

		samples[i][0] = sample
		samples[i][1] = sample
		b.pos++
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (b *Bell) Err() error {
	return nil
}
