//go:build !linux

package input

import "errors"

// DeviceSource needs evdev, which only exists on linux. Other
// platforms fall back to terminal key input and lose hold notes.
type DeviceSource struct{}

func NewDeviceSource(device string, codes []uint16) (*DeviceSource, error) {
	return nil, errors.New("direct device input requires a linux evdev device")
}

func (s *DeviceSource) Poll() []Event { return nil }
func (s *DeviceSource) Close() error  { return nil }
