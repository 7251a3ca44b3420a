// SPDX-License-Identifier: EPL-2.0

package audstream

import (
	"github.com/ik5/audstream/player"
	"github.com/ik5/audstream/plugin"
)

// NewPluginRegistry returns a sealed registry holding the audio file
// player. Players open files with the bundled decoders unless opts
// set another opener.
func NewPluginRegistry(opts ...player.Option) (*plugin.Registry, error) {
	r := plugin.NewRegistry()

	base := []player.Option{player.WithOpener(Opener(NewDecoderRegistry()))}
	if err := r.Register(player.NewDescriptor(append(base, opts...)...)); err != nil {
		return nil, err
	}

	r.Seal()

	return r, nil
}
