package tables

import (
	"fmt"
	"math"
)

// NoChange marks a key, volume or pan byte that leaves the current value alone.
const NoChange = 255

// Semitone base pitches, C through B.
var freqTable = [12]int16{
	261, 278, 294, 311, 329, 349, 371, 391, 414, 440, 466, 494,
}

// octaveScale[i] = 2^(i-3).
var octaveScale = [8]float32{
	0.125, 0.25, 0.5, 1, 2, 4, 8, 16,
}

var panTable = [13]int16{
	0, 43, 86, 129, 172, 215, 256, 297, 340, 383, 426, 469, 512,
}

// NumOctaves is the number of octave bands a melodic key can select.
const NumOctaves = len(octaveScale)

// KeyToOctavePitch splits a key into its octave and semitone.
func KeyToOctavePitch(key uint8) (octave, pitch int) {
	return int(key) / 12, int(key) % 12
}

// KeyToFrequency returns the playback rate in Hz for a melodic key.
// freqOffset is the instrument's base frequency field; 1000 means no detune.
func KeyToFrequency(key uint8, freqOffset uint16) int32 {
	octave, pitch := KeyToOctavePitch(key)
	if octave >= NumOctaves {
		panic(fmt.Sprintf("tables: key %d is outside the %d octave range", key, NumOctaves))
	}
	freq := float32(freqTable[pitch])
	// Truncate first, then apply the offset.
	return int32(freq*256*octaveScale[octave]) + (1000 - int32(int16(freqOffset)))
}

// DrumToFrequency returns the playback rate in Hz for a drum key.
func DrumToFrequency(key uint8) int32 {
	return int32(key)*800 + 100
}

// PanToCentibel maps a pan byte (0-12) to a signed pan in centibels.
func PanToCentibel(pan uint8) int32 {
	if int(pan) >= len(panTable) {
		panic(fmt.Sprintf("tables: pan %d out of range [0, %d]", pan, len(panTable)-1))
	}
	return (int32(panTable[pan]) - 256) * 10
}

// VolumeToCentibel maps a volume byte to an attenuation in centibels (always <= 0).
func VolumeToCentibel(vol uint8) int32 {
	return (int32(vol) - 255) * 8
}

// CentibelToScale converts centibels to a linear gain.
// The power is taken in float64 and narrowed to float32.
func CentibelToScale(cb int32) float32 {
	return float32(math.Pow(10, float64(float32(cb)/2000)))
}
