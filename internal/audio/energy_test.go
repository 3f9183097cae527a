package audio

import (
	"math"
	"testing"
)

func sineFrame(freq float64, sampleRate, n int, amplitude float64) []int16 {
	frame := make([]int16, n)
	for i := range frame {
		v := amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		frame[i] = int16(v * math.MaxInt16)
	}
	return frame
}

func TestAnalyzer_SilenceHasNearZeroEnergy(t *testing.T) {
	a := NewAnalyzer()
	energy := a.Energy(make([]int16, 256))
	if energy > 0.001 {
		t.Errorf("Expected near-zero energy for silence, got %f", energy)
	}
}

func TestAnalyzer_ToneHasHigherEnergyThanSilence(t *testing.T) {
	a := NewAnalyzer()
	silence := a.Energy(make([]int16, 256))

	a.Reset()
	tone := a.Energy(sineFrame(440, 16000, 256, 0.8))

	if tone <= silence {
		t.Errorf("Expected tone energy (%f) above silence energy (%f)", tone, silence)
	}
}

func TestAnalyzer_LouderIsMoreEnergetic(t *testing.T) {
	a := NewAnalyzer()
	quiet := a.Energy(sineFrame(440, 16000, 256, 0.1))
	a.Reset()
	loud := a.Energy(sineFrame(440, 16000, 256, 0.9))

	if loud <= quiet {
		t.Errorf("Expected loud energy (%f) above quiet energy (%f)", loud, quiet)
	}
}

func TestAnalyzer_EmptyFrame(t *testing.T) {
	a := NewAnalyzer()
	if energy := a.Energy(nil); energy != 0 {
		t.Errorf("Expected zero energy with no samples, got %f", energy)
	}
}

func TestEncodeWAV_Header(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767}
	wav := EncodeWAV(samples, 16000)

	if len(wav) != 44+len(samples)*2 {
		t.Fatalf("Expected %d bytes, got %d", 44+len(samples)*2, len(wav))
	}
	if string(wav[:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Errorf("Malformed RIFF header: %q %q", wav[:4], wav[8:12])
	}
}

func TestPCM16RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	decoded := DecodePCM16(EncodePCM16(samples))
	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, samples[i], decoded[i])
		}
	}
}
