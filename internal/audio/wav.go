package audio

import "encoding/binary"

// EncodeWAV wraps mono 16-bit PCM samples in a RIFF/WAVE container so
// the blob can be handed to transcription services as a normal file.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 0, 44+dataLen)

	le := binary.LittleEndian
	appendU32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	appendU16 := func(v uint16) {
		var b [2]byte
		le.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}

	buf = append(buf, "RIFF"...)
	appendU32(uint32(36 + dataLen))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	appendU32(16)
	appendU16(1) // PCM
	appendU16(1) // mono
	appendU32(uint32(sampleRate))
	appendU32(uint32(sampleRate * 2)) // byte rate
	appendU16(2)                      // block align
	appendU16(16)                     // bits per sample

	buf = append(buf, "data"...)
	appendU32(uint32(dataLen))
	for _, s := range samples {
		var b [2]byte
		le.PutUint16(b[:], uint16(s))
		buf = append(buf, b[:]...)
	}
	return buf
}

// DecodePCM16 converts little-endian 16-bit PCM bytes to samples,
// ignoring a trailing odd byte.
func DecodePCM16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// EncodePCM16 converts samples to little-endian 16-bit PCM bytes
func EncodePCM16(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}
