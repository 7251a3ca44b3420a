// SPDX-License-Identifier: EPL-2.0

package plugin

import "errors"

var (
	ErrSealed            = errors.New("plugin: registry is sealed")
	ErrDuplicate         = errors.New("plugin: duplicate plugin id")
	ErrNotFound          = errors.New("plugin: unknown plugin id")
	ErrInvalidDescriptor = errors.New("plugin: descriptor needs an id and a factory")
	ErrUnknownKey        = errors.New("plugin: unknown custom data key")
)
