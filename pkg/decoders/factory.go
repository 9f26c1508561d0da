package decoders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/drgolem/stretchplayer/pkg/decoders/flac"
	"github.com/drgolem/stretchplayer/pkg/decoders/mp3"
	"github.com/drgolem/stretchplayer/pkg/decoders/vorbis"
	"github.com/drgolem/stretchplayer/pkg/decoders/wav"
	"github.com/drgolem/stretchplayer/pkg/types"
)

// NewDecoder creates and opens the appropriate decoder based on file extension.
// Supports .wav, .mp3, .flac, .fla, .ogg and .oga formats.
// Returns an opened decoder ready for use, or an error if the format is
// unsupported or the file cannot be opened.
func NewDecoder(fileName string) (types.AudioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var decoder types.AudioDecoder

	switch ext {
	case ".wav":
		decoder = wav.NewDecoder()
	case ".mp3":
		decoder = mp3.NewDecoder()
	case ".flac", ".fla":
		decoder = flac.NewDecoder()
	case ".ogg", ".oga":
		decoder = vorbis.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .wav, .mp3, .flac, .fla, .ogg, .oga)", ext)
	}

	if err := decoder.Open(fileName); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	return decoder, nil
}
