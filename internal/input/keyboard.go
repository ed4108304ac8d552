package input

import (
	"fmt"

	"github.com/eiannone/keyboard"
)

// KeyboardSource turns terminal key events into press edges. The
// terminal cannot report releases, so a press is followed by an
// immediate synthetic release; holds are only playable through a
// DeviceSource.
type KeyboardSource struct {
	bindings map[rune]int
	events   <-chan keyboard.KeyEvent

	OnQuit func()
}

func NewKeyboardSource(keys []rune) (*KeyboardSource, error) {
	events, err := keyboard.GetKeys(128)
	if nil != err {
		return nil, fmt.Errorf("unable to open keyboard: %w", err)
	}
	bindings := map[rune]int{}
	for lane, r := range keys {
		bindings[r] = lane
	}
	return &KeyboardSource{bindings: bindings, events: events}, nil
}

func (s *KeyboardSource) Poll() []Event {
	events := []Event{}
	for i := 0; i < len(s.events); i++ {
		key := <-s.events
		if key.Key == keyboard.KeyEsc {
			if nil != s.OnQuit {
				s.OnQuit()
			}
			continue
		}
		lane, ok := s.bindings[key.Rune]
		if !ok {
			continue
		}
		action := fmt.Sprintf("lane%d", lane)
		events = append(events,
			Event{Action: action, Lane: lane, Pressed: true},
			Event{Action: action, Lane: lane, Pressed: false},
		)
	}
	return events
}

func (s *KeyboardSource) Close() error {
	return keyboard.Close()
}
