package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

// wavData is the decoded content of a 16-bit PCM WAV file, the only
// format the player supports. Anything fancier should be converted
// before it lands in the track directory.
type wavData struct {
	channels   int
	sampleRate int
	samples    []int16
}

func decodeWavFile(path string) (*wavData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", path, err)
	}
	wav, err := decodeWav(data)
	if err != nil {
		return nil, fmt.Errorf("can't decode %s: %w", path, err)
	}
	return wav, nil
}

// decodeWav walks the RIFF chunks and extracts format and sample data.
func decodeWav(data []byte) (*wavData, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	wav := &wavData{}
	haveFmt := false

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			return nil, fmt.Errorf("truncated %q chunk", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("short fmt chunk (%d bytes)", chunkSize)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, fmt.Errorf("unsupported audio format %d (only PCM)", audioFormat)
			}
			wav.channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			wav.sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if bits != 16 {
				return nil, fmt.Errorf("unsupported bit depth %d (only 16)", bits)
			}
			haveFmt = true
		case "data":
			wav.samples = make([]int16, chunkSize/2)
			for i := range wav.samples {
				wav.samples[i] = int16(binary.LittleEndian.Uint16(data[body+2*i : body+2*i+2]))
			}
		}

		// Chunks are word-aligned; odd sizes carry a padding byte.
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("missing fmt chunk")
	}
	if wav.channels < 1 {
		return nil, fmt.Errorf("no channels")
	}
	if wav.sampleRate <= 0 {
		return nil, fmt.Errorf("bad sample rate %d", wav.sampleRate)
	}
	if wav.samples == nil {
		return nil, fmt.Errorf("missing data chunk")
	}
	return wav, nil
}
