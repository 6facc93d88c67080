package beats

import (
	"math"
	"sort"
)

const (
	frameSize = 1024
	hopSize   = 512

	// Peaks closer together than this are one beat; 150ms corresponds to
	// 400 BPM, comfortably above any music this pipeline sees.
	minBeatGapSec = 0.15
)

// Detect runs energy-flux onset detection over mono PCM samples and returns
// the beat track plus a confidence flag. When confidence is false the caller
// should substitute Synthetic; Detect itself never returns an empty track.
func Detect(samples []float64, sampleRate int) (BeatTrack, bool) {
	duration := float64(len(samples)) / float64(sampleRate)
	if len(samples) < frameSize*4 || sampleRate <= 0 {
		return Synthetic(duration, DefaultTempoBPM), false
	}

	envelope := onsetEnvelope(samples)
	times := pickPeaks(envelope, sampleRate)

	// The compiled timeline starts at zero; anchor the first beat there the
	// way the legacy detector padded its beat list.
	if len(times) == 0 || times[0] > 0.1 {
		times = append([]float64{0}, times...)
	}

	tempo := estimateTempo(times)
	confident := len(times) >= 2 && tempo > 0

	if !confident {
		return Synthetic(duration, tempo), false
	}

	return BeatTrack{
		Times:    times,
		TempoBPM: tempo,
		Duration: duration,
	}, true
}

// onsetEnvelope computes per-hop positive energy flux.
func onsetEnvelope(samples []float64) []float64 {
	frames := (len(samples) - frameSize) / hopSize
	if frames <= 0 {
		return nil
	}

	energies := make([]float64, frames)
	for i := 0; i < frames; i++ {
		start := i * hopSize
		var sum float64
		for _, s := range samples[start : start+frameSize] {
			sum += s * s
		}
		energies[i] = sum / frameSize
	}

	flux := make([]float64, frames)
	for i := 1; i < frames; i++ {
		d := energies[i] - energies[i-1]
		if d > 0 {
			flux[i] = d
		}
	}
	return flux
}

// pickPeaks thresholds the envelope at mean + 1.5 stddev over a sliding
// window and converts surviving local maxima to timestamps.
func pickPeaks(envelope []float64, sampleRate int) []float64 {
	if len(envelope) == 0 {
		return nil
	}

	const window = 43 // ~1.4s of hops at 16kHz
	hopSec := float64(hopSize) / float64(sampleRate)
	minGapHops := int(minBeatGapSec / hopSec)

	var times []float64
	lastPeak := -minGapHops

	for i := 1; i < len(envelope)-1; i++ {
		if envelope[i] <= envelope[i-1] || envelope[i] < envelope[i+1] {
			continue
		}

		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window
		if hi > len(envelope) {
			hi = len(envelope)
		}
		mean, std := meanStd(envelope[lo:hi])
		if envelope[i] < mean+1.5*std || envelope[i] == 0 {
			continue
		}

		if i-lastPeak < minGapHops {
			continue
		}
		lastPeak = i
		times = append(times, float64(i)*hopSec)
	}

	return times
}

// estimateTempo derives BPM from the median inter-onset interval, folded into
// the 60..180 range conventional for dance tracks.
func estimateTempo(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}

	intervals := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		if d := times[i] - times[i-1]; d > 0 {
			intervals = append(intervals, d)
		}
	}
	if len(intervals) == 0 {
		return 0
	}

	sort.Float64s(intervals)
	median := intervals[len(intervals)/2]
	bpm := 60.0 / median

	for bpm < 60 {
		bpm *= 2
	}
	for bpm > 180 {
		bpm /= 2
	}
	return bpm
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
