package entities

import "time"

// VoiceStatus is the single source of truth for what the voice pipeline
// is doing. Recording and Speaking are mutually exclusive by construction.
type VoiceStatus string

const (
	VoiceStatusIdle       VoiceStatus = "idle"
	VoiceStatusRecording  VoiceStatus = "recording"
	VoiceStatusProcessing VoiceStatus = "processing"
	VoiceStatusSpeaking   VoiceStatus = "speaking"
)

// VoiceSession tracks the live state of voice mode. It is never persisted;
// a fresh one is built every time voice mode opens.
type VoiceSession struct {
	Status       VoiceStatus `json:"status"`
	LastEnergy   float64     `json:"last_energy"`
	SilenceSince *time.Time  `json:"silence_since,omitempty"`
}

// NewVoiceSession returns an idle voice session
func NewVoiceSession() *VoiceSession {
	return &VoiceSession{Status: VoiceStatusIdle}
}

// CanRecord reports whether startRecording is currently allowed
func (v *VoiceSession) CanRecord() bool {
	return v.Status == VoiceStatusIdle
}

// CanSpeak reports whether reply playback is currently allowed
func (v *VoiceSession) CanSpeak() bool {
	return v.Status == VoiceStatusIdle
}

// ObserveEnergy updates silence tracking for one energy sample taken at
// now. It returns true when energy has stayed below threshold for at
// least debounce, i.e. recording should auto-stop.
func (v *VoiceSession) ObserveEnergy(energy, threshold float64, debounce time.Duration, now time.Time) bool {
	v.LastEnergy = energy
	if v.Status != VoiceStatusRecording {
		v.SilenceSince = nil
		return false
	}
	if energy >= threshold {
		v.SilenceSince = nil
		return false
	}
	if v.SilenceSince == nil {
		t := now
		v.SilenceSince = &t
		return false
	}
	return now.Sub(*v.SilenceSince) >= debounce
}

// ClearSilence forgets any accumulated silence observation
func (v *VoiceSession) ClearSilence() {
	v.SilenceSince = nil
}
