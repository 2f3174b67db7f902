package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// SilentSynthesizer writes a silent 16-bit stereo PCM WAV of fixed length.
// It ignores the text and never depends on a network.
type SilentSynthesizer struct {
	seconds    int
	sampleRate int
}

// NewSilentSynthesizer creates the last-resort provider.
func NewSilentSynthesizer(seconds, sampleRate int) *SilentSynthesizer {
	if seconds <= 0 {
		seconds = 5
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &SilentSynthesizer{seconds: seconds, sampleRate: sampleRate}
}

func (s *SilentSynthesizer) Name() string { return "silent" }

func (s *SilentSynthesizer) Synthesize(_ context.Context, _ string, outStem string) (Audio, error) {
	path := outStem + ".wav"
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Audio{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return Audio{}, fmt.Errorf("failed to create %s: %w", path, err)
	}
	err = writeSilentWAV(f, s.sampleRate, 2, s.seconds)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Audio{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return Audio{
		Path:     path,
		Duration: time.Duration(s.seconds) * time.Second,
		Provider: s.Name(),
	}, nil
}

const bitsPerSample = 16

// writeSilentWAV writes a canonical 44-byte RIFF header followed by zeroed
// samples.
func writeSilentWAV(w io.Writer, sampleRate, channels, seconds int) error {
	blockAlign := channels * bitsPerSample / 8
	dataSize := sampleRate * seconds * blockAlign

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + dataSize),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16), // PCM fmt chunk size
		uint16(1),  // PCM
		uint16(channels),
		uint32(sampleRate),
		uint32(sampleRate * blockAlign),
		uint16(blockAlign),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		uint32(dataSize),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	zeros := make([]byte, 32*1024)
	for remaining := dataSize; remaining > 0; {
		n := len(zeros)
		if remaining < n {
			n = remaining
		}
		if _, err := w.Write(zeros[:n]); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}

// WAVDuration reads the duration of a PCM WAV file from its header.
func WAVDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return 0, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, fmt.Errorf("%s is not a WAV file", path)
	}

	var byteRate uint32
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(f, chunk[:]); err != nil {
			return 0, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])
		switch id {
		case "fmt ":
			fmtChunk := make([]byte, size)
			if _, err := io.ReadFull(f, fmtChunk); err != nil {
				return 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			if size < 16 {
				return 0, fmt.Errorf("short fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(fmtChunk[8:12])
		case "data":
			if byteRate == 0 {
				return 0, fmt.Errorf("data chunk before fmt chunk")
			}
			return time.Duration(float64(size) / float64(byteRate) * float64(time.Second)), nil
		default:
			if _, err := f.Seek(int64(size+size%2), io.SeekCurrent); err != nil {
				return 0, err
			}
		}
	}
}
