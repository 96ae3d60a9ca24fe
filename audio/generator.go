package audio

import (
	"math"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/unveil/vmath"
)

// newVoiceStreamer returns an endless synthesized source for a voice
func newVoiceStreamer(v Voice, sr beep.SampleRate) beep.Streamer {
	switch v.Kind {
	case VoiceRain:
		return &rainGenerator{rng: vmath.NewFastRand(0x9e3779b97f4a7c15)}
	case VoiceDrone:
		return &droneGenerator{sr: sr, freq: freqOr(v.Freq, 55)}
	case VoiceChime:
		return &chimeGenerator{sr: sr, freq: freqOr(v.Freq, 880), period: sr.N(beatPeriod)}
	default:
		return &padGenerator{sr: sr, freq: freqOr(v.Freq, 220), cycle: sr.N(padCycle)}
	}
}

func freqOr(f, def float64) float64 {
	if f > 0 {
		return f
	}
	return def
}

// padGenerator is a slowly breathing major triad
type padGenerator struct {
	sr    beep.SampleRate
	freq  float64
	cycle int
	pos   int
}

func (g *padGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		cyclePos := float64(g.pos%g.cycle) / float64(g.cycle)
		amp := 0.12 * (0.6 + 0.4*math.Sin(cyclePos*math.Pi*2))

		s := math.Sin(2*math.Pi*g.freq*t) +
			0.7*math.Sin(2*math.Pi*g.freq*1.25*t) +
			0.5*math.Sin(2*math.Pi*g.freq*1.5*t)
		s *= amp

		samples[i][0] = s
		samples[i][1] = s
		g.pos++
	}
	return len(samples), true
}

func (g *padGenerator) Err() error { return nil }

// rainGenerator is one-pole low-passed white noise
type rainGenerator struct {
	rng  *vmath.FastRand
	last float64
}

func (g *rainGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		noise := g.rng.Float64()*2 - 1
		g.last += 0.15 * (noise - g.last)
		s := 0.6 * g.last

		samples[i][0] = s
		samples[i][1] = s
	}
	return len(samples), true
}

func (g *rainGenerator) Err() error { return nil }

// droneGenerator is a low bass tone with a fifth above
type droneGenerator struct {
	sr   beep.SampleRate
	freq float64
	pos  int
}

func (g *droneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		s := 0.15*math.Sin(2*math.Pi*g.freq*t) + 0.05*math.Sin(2*math.Pi*g.freq*1.5*t)

		samples[i][0] = s
		samples[i][1] = s
		g.pos++
	}
	return len(samples), true
}

func (g *droneGenerator) Err() error { return nil }

// chimeGenerator strikes a decaying bell once per period
type chimeGenerator struct {
	sr     beep.SampleRate
	freq   float64
	period int
	pos    int
}

func (g *chimeGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos%g.period) / float64(g.sr)
		env := math.Exp(-t * 4)
		s := env * (0.2*math.Sin(2*math.Pi*g.freq*t) + 0.08*math.Sin(2*math.Pi*g.freq*2.76*t))

		samples[i][0] = s
		samples[i][1] = s
		g.pos++
	}
	return len(samples), true
}

func (g *chimeGenerator) Err() error { return nil }
