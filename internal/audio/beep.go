package audio

import (
	"fmt"
	"math"
	"os"
	"path"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
)

// BeepClock plays a song through the speaker and reports its position
// as sample-accurate playback time.
type BeepClock struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	playing  bool
}

// Open decodes an .mp3 or .ogg file without starting playback.
func Open(file string) (*BeepClock, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, err
	}
	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch path.Ext(file) {
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported audio file %q", file)
	}
	if nil != err {
		f.Close()
		return nil, err
	}
	return &BeepClock{streamer: streamer, format: format}, nil
}

// Start initialises the speaker at the rate-adjusted sample rate and
// begins playback.
func (c *BeepClock) Start(rate float64) error {
	sr := beep.SampleRate(math.Round(float64(c.format.SampleRate) * rate))
	if err := speaker.Init(sr, c.format.SampleRate.N(time.Second/30)); nil != err {
		return err
	}
	speaker.Play(beep.Seq(c.streamer, beep.Callback(func() {
		c.playing = false
	})))
	c.playing = true
	return nil
}

func (c *BeepClock) Position() time.Duration {
	speaker.Lock()
	pos := c.streamer.Position()
	speaker.Unlock()
	return c.format.SampleRate.D(pos)
}

func (c *BeepClock) Seek(to time.Duration) error {
	speaker.Lock()
	defer speaker.Unlock()
	sample := c.format.SampleRate.N(to)
	if sample < 0 {
		sample = 0
	}
	if sample >= c.streamer.Len() {
		sample = c.streamer.Len() - 1
	}
	return c.streamer.Seek(sample)
}

func (c *BeepClock) Playing() bool {
	return c.playing
}

func (c *BeepClock) Close() error {
	return c.streamer.Close()
}

func (c *BeepClock) Len() time.Duration {
	return c.format.SampleRate.D(c.streamer.Len())
}
