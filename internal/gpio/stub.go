//go:build !linux

package gpio

import "fmt"

// openHardware returns an error on non-Linux platforms.
func openHardware(opts Options) (Device, error) {
	return nil, fmt.Errorf("gpio: %s not supported on this platform (requires Linux)", opts.Kind)
}
