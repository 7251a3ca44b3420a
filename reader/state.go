// SPDX-License-Identifier: EPL-2.0

package reader

// State of the background worker.
type State int32

const (
	Idle State = iota
	Reading
	Quitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	case Quitting:
		return "quitting"
	default:
		return "unknown"
	}
}
