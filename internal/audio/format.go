// Package audio inspects uploaded recordings and stages them on disk for
// the transcription providers.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-audio/wav"
)

// Format identifies an audio container
type Format string

const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatM4A  Format = "m4a"
	FormatOGG  Format = "ogg"
	FormatWebM Format = "webm"
	FormatFLAC Format = "flac"
	// FormatPCM is headerless 16-bit little-endian mono PCM at 16 kHz
	FormatPCM Format = "pcm"
)

// PCM parameters assumed for headerless input
const (
	PCMSampleRate = 16000
	PCMBitDepth   = 16
	PCMChannels   = 1
)

var (
	ErrEmpty        = errors.New("audio is empty")
	ErrUnrecognized = errors.New("unrecognized audio format")
)

// MIME returns the content type for f
func (f Format) MIME() string {
	switch f {
	case FormatWAV, FormatPCM:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	case FormatM4A:
		return "audio/mp4"
	case FormatOGG:
		return "audio/ogg"
	case FormatWebM:
		return "audio/webm"
	case FormatFLAC:
		return "audio/flac"
	}
	return "application/octet-stream"
}

// Ext returns the file extension providers use to sniff the container
func (f Format) Ext() string {
	if f == FormatPCM {
		return ".wav"
	}
	return "." + string(f)
}

// Info describes a recording
type Info struct {
	Format     Format
	Channels   int
	SampleRate int
	BitDepth   int
	Duration   time.Duration // zero when unknown
	Size       int
}

// Detect identifies the container from magic bytes. Anything unrecognized
// with an even byte count is treated as raw PCM.
func Detect(data []byte) (Format, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV, nil
	case len(data) >= 4 && string(data[0:4]) == "fLaC":
		return FormatFLAC, nil
	case len(data) >= 4 && string(data[0:4]) == "OggS":
		return FormatOGG, nil
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return FormatWebM, nil
	case len(data) >= 8 && string(data[4:8]) == "ftyp":
		return FormatM4A, nil
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3, nil
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 && (data[1]>>1)&0x3 != 0:
		return FormatMP3, nil
	}
	if len(data)%2 != 0 {
		return "", ErrUnrecognized
	}
	return FormatPCM, nil
}

// Inspect detects the format and, for WAV and PCM, validates the stream parameters
func Inspect(data []byte) (*Info, error) {
	format, err := Detect(data)
	if err != nil {
		return nil, err
	}
	info := &Info{Format: format, Size: len(data)}

	switch format {
	case FormatWAV:
		d := wav.NewDecoder(bytes.NewReader(data))
		if !d.IsValidFile() {
			return nil, fmt.Errorf("corrupt wav: %v", d.Err())
		}
		info.Channels = int(d.NumChans)
		info.SampleRate = int(d.SampleRate)
		info.BitDepth = int(d.BitDepth)
		if info.Channels < 1 || info.Channels > 2 {
			return nil, fmt.Errorf("unsupported channel count %d (mono or stereo only)", info.Channels)
		}
		// a fresh decoder, the first one has consumed the header
		if dur, err := wav.NewDecoder(bytes.NewReader(data)).Duration(); err == nil {
			info.Duration = dur
		}
	case FormatPCM:
		info.Channels = PCMChannels
		info.SampleRate = PCMSampleRate
		info.BitDepth = PCMBitDepth
		samples := len(data) / (PCMBitDepth / 8)
		info.Duration = time.Duration(samples) * time.Second / PCMSampleRate
	}
	return info, nil
}
