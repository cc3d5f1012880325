package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Spool stages recordings as private temporary files
type Spool struct {
	dir string
}

// NewSpool creates the spool directory if needed; empty dir means os.TempDir()
func NewSpool(dir string) (*Spool, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spool{dir: dir}, nil
}

// Dir returns the spool directory
func (s *Spool) Dir() string {
	return s.dir
}

// Staged is a recording written to the spool. Callers must Release it.
type Staged struct {
	Path string
	Info Info
}

// Stage writes data to a new 0600 file. Raw PCM is wrapped in a WAV header.
func (s *Spool) Stage(data []byte, info *Info) (*Staged, error) {
	f, err := os.CreateTemp(s.dir, "clip-*"+info.Format.Ext())
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	staged := &Staged{Path: f.Name(), Info: *info}

	if info.Format == FormatPCM {
		err = writePCMAsWAV(f, data)
		staged.Info.Format = FormatWAV
	} else {
		_, err = f.Write(data)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(staged.Path)
		return nil, fmt.Errorf("write spool file: %w", err)
	}
	return staged, nil
}

// Bytes reads the staged file back
func (st *Staged) Bytes() ([]byte, error) {
	return os.ReadFile(st.Path)
}

// Release deletes the staged file; releasing twice is harmless
func (st *Staged) Release() error {
	if err := os.Remove(st.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func writePCMAsWAV(f *os.File, pcm []byte) error {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: PCMChannels, SampleRate: PCMSampleRate},
		Data:           samples,
		SourceBitDepth: PCMBitDepth,
	}

	enc := wav.NewEncoder(f, PCMSampleRate, PCMBitDepth, PCMChannels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoder write buffer: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoder close: %w", err)
	}
	return nil
}
