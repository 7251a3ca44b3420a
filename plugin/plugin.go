// SPDX-License-Identifier: EPL-2.0

package plugin

// TimeInfo is the host transport state for one block.
type TimeInfo struct {
	Playing bool
	// Frame is the absolute transport position of the block's first sample.
	Frame uint64
}

// Host is what a plugin may ask of the engine that runs it.
type Host interface {
	SampleRate() float64
	// TimeInfo is called from the audio thread once per block.
	TimeInfo() TimeInfo
}

// Plugin is the capability set every plugin variant implements.
type Plugin interface {
	GetParameter(id uint32) float32
	SetParameter(id uint32, value float32)

	// Process renders frames samples into each outputs channel. It runs on
	// the audio thread: no allocation, no I/O, no blocking.
	Process(inputs, outputs [][]float32, frames int)

	// LoadCustomData handles control-plane state such as the file to play.
	// It runs off the audio thread and may block.
	LoadCustomData(key, value string) error

	Close() error
}

// Info contains plugin metadata
type Info struct {
	ID       string // Unique plugin identifier (e.g., "audstream.audiofile")
	Name     string // Display name
	Version  string // Semantic version (e.g., "1.0.0")
	Vendor   string // Company/developer name
	Category string // Plugin category (e.g., "Generator")
}

// Flags for parameters
const (
	CanAutomate uint32 = 1 << 0
	IsReadOnly  uint32 = 1 << 1
	IsBoolean   uint32 = 1 << 2
)

// Parameter describes one plugin parameter. Values are plain, not
// normalized.
type Parameter struct {
	ID      uint32
	Name    string
	Unit    string
	Min     float32
	Max     float32
	Default float32
	Flags   uint32
}

// Clamp limits v to [Min, Max].
func (p Parameter) Clamp(v float32) float32 {
	return min(max(v, p.Min), p.Max)
}

// Factory creates an instance bound to host.
type Factory func(host Host) (Plugin, error)

// Descriptor is a registry entry.
type Descriptor struct {
	Info       Info
	Parameters []Parameter
	Outputs    int
	New        Factory
}

// Parameter looks up a parameter descriptor by id.
func (d Descriptor) Parameter(id uint32) (Parameter, bool) {
	for _, p := range d.Parameters {
		if p.ID == id {
			return p, true
		}
	}
	return Parameter{}, false
}
