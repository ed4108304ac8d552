//go:build linux

package input

import (
	"encoding/binary"
	"log"
	"os"
	"sync"
	"syscall"
)

// see include/uapi/linux/input-event-codes.h
const (
	evKey = 0x01

	valueRelease = 0
	valuePress   = 1
	valueRepeat  = 2
)

type rawEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// DeviceSource reads an evdev keyboard directly, which is the only
// way to get release edges and therefore hold notes.
type DeviceSource struct {
	file     *os.File
	bindings map[uint16]int

	mu     sync.Mutex
	queued []Event
}

// NewDeviceSource opens an input device and maps scan codes to lanes
// in slice order.
func NewDeviceSource(device string, codes []uint16) (*DeviceSource, error) {
	file, err := os.Open(device)
	if nil != err {
		return nil, err
	}
	bindings := map[uint16]int{}
	for lane, code := range codes {
		bindings[code] = lane
	}
	s := &DeviceSource{file: file, bindings: bindings}
	go s.read()
	return s, nil
}

func (s *DeviceSource) read() {
	var ev rawEvent
	for {
		if err := binary.Read(s.file, binary.LittleEndian, &ev); nil != err {
			log.Println("unable to read keyboard input:", err)
			return
		}
		if ev.Type != evKey {
			continue
		}
		lane, ok := s.bindings[ev.Code]
		if !ok {
			continue
		}
		s.mu.Lock()
		s.queued = append(s.queued, Event{
			Lane:    lane,
			Pressed: ev.Value != valueRelease,
			Echo:    ev.Value == valueRepeat,
		})
		s.mu.Unlock()
	}
}

func (s *DeviceSource) Poll() []Event {
	s.mu.Lock()
	events := s.queued
	s.queued = nil
	s.mu.Unlock()
	return events
}

func (s *DeviceSource) Close() error {
	return s.file.Close()
}
