package organya

import "encoding/binary"

// EncodeWAVPCM16LE wraps packed stereo frames in a 44-byte RIFF/WAVE header.
func EncodeWAVPCM16LE(frames []uint32) []byte {
	dataSize := len(frames) * 4
	blockAlign := Channels * BitDepth / 8
	byteRate := SampleRate * blockAlign
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], Channels)
	binary.LittleEndian.PutUint32(out[24:], SampleRate)
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], BitDepth)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, f := range frames {
		binary.LittleEndian.PutUint32(out[44+i*4:], f)
	}
	return out
}
