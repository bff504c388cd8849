package audio

import (
	"bytes"
	"encoding/binary"
)

// wavHeader is the 44-byte RIFF/WAVE header for plain PCM.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// EncodeWAV renders a canonical float32 window as an in-memory 16-bit
// PCM mono WAV file, the upload format transcription servers expect.
// Nothing touches the filesystem.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	dataSize := uint32(len(samples) * 2)
	h := wavHeader{
		ChunkSize:     36 + dataSize,
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2Size: dataSize,
	}
	copy(h.ChunkID[:], "RIFF")
	copy(h.Format[:], "WAVE")
	copy(h.Subchunk1ID[:], "fmt ")
	copy(h.Subchunk2ID[:], "data")

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		pcm[i] = int16(s * 32767)
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+int(dataSize)))
	binary.Write(buf, binary.LittleEndian, h)
	binary.Write(buf, binary.LittleEndian, pcm)
	return buf.Bytes()
}
