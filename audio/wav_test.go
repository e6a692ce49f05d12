package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWav assembles a minimal RIFF/WAVE byte stream for the decoder
// tests.
func buildWav(format uint16, channels uint16, sampleRate uint32, bits uint16, samples []int16) []byte {
	dataSize := uint32(len(samples) * 2)

	var buf []byte
	le := binary.LittleEndian

	appendU16 := func(v uint16) {
		b := make([]byte, 2)
		le.PutUint16(b, v)
		buf = append(buf, b...)
	}
	appendU32 := func(v uint32) {
		b := make([]byte, 4)
		le.PutUint32(b, v)
		buf = append(buf, b...)
	}

	buf = append(buf, "RIFF"...)
	appendU32(36 + dataSize)
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	appendU32(16)
	appendU16(format)
	appendU16(channels)
	appendU32(sampleRate)
	appendU32(sampleRate * uint32(channels) * uint32(bits) / 8) // byte rate
	appendU16(channels * bits / 8)                              // block align
	appendU16(bits)

	buf = append(buf, "data"...)
	appendU32(dataSize)
	for _, s := range samples {
		appendU16(uint16(s))
	}
	return buf
}

func TestDecodeWav(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768}
	data := buildWav(1, 2, 44100, 16, samples)

	wav, err := decodeWav(data)
	require.NoError(t, err)
	assert.Equal(t, 2, wav.channels)
	assert.Equal(t, 44100, wav.sampleRate)
	assert.Equal(t, samples, wav.samples)
}

func TestDecodeWav_NotRiff(t *testing.T) {
	_, err := decodeWav([]byte("OggS this is something else entirely"))
	assert.ErrorContains(t, err, "not a RIFF/WAVE file")
}

func TestDecodeWav_NonPCM(t *testing.T) {
	data := buildWav(3, 1, 44100, 16, []int16{1}) // 3 = IEEE float
	_, err := decodeWav(data)
	assert.ErrorContains(t, err, "unsupported audio format")
}

func TestDecodeWav_WrongBitDepth(t *testing.T) {
	data := buildWav(1, 1, 44100, 8, []int16{1})
	_, err := decodeWav(data)
	assert.ErrorContains(t, err, "unsupported bit depth")
}

func TestDecodeWav_Truncated(t *testing.T) {
	data := buildWav(1, 1, 44100, 16, []int16{1, 2, 3})
	_, err := decodeWav(data[:len(data)-2])
	assert.ErrorContains(t, err, "truncated")
}

func TestDecodeWav_MissingData(t *testing.T) {
	full := buildWav(1, 1, 44100, 16, nil)
	// Cut off the empty data chunk entirely.
	data := full[:len(full)-8]
	_, err := decodeWav(data)
	assert.ErrorContains(t, err, "missing data chunk")
}

func TestDecodeWavFile_MissingFile(t *testing.T) {
	_, err := decodeWavFile("/nonexistent-xyz.wav")
	assert.Error(t, err)
}
