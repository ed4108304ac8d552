package audio

import "time"

// Clock is the playback position of an audio device. The conductor is
// the authority; a drifting clock gets seeked back into line.
type Clock interface {
	Position() time.Duration
	Seek(to time.Duration) error
	Playing() bool
}
