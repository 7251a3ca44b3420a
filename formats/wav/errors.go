// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile          = errors.New("not a WAV file")
	ErrMissingDataChunk    = errors.New("WAV file has no data chunk")
	ErrUnsupportedEncoding = errors.New("unsupported WAV encoding")
	ErrInvalidChannels     = errors.New("channel count must be positive")
)
