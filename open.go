// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/reader"
)

// fileSource closes the underlying file together with the decoder.
type fileSource struct {
	audio.SeekableSource
	f *os.File
}

func (s *fileSource) Close() error {
	return errors.Join(s.SeekableSource.Close(), s.f.Close())
}

// Format returns the registry key for path: its lower case extension.
func Format(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// OpenFile opens path and decodes it with the decoder registered for its
// extension. Closing the returned source closes the file.
func OpenFile(decoders *audio.Registry, path string) (audio.SeekableSource, error) {
	format := Format(path)
	dec, ok := decoders.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", audio.ErrUnknownFormat, format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	s, err := audio.AsSeekable(src)
	if err != nil {
		src.Close()
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &fileSource{SeekableSource: s, f: f}, nil
}

// Opener adapts OpenFile to the streaming reader.
func Opener(decoders *audio.Registry) reader.Opener {
	return func(path string) (audio.SeekableSource, error) {
		return OpenFile(decoders, path)
	}
}
