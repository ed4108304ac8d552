package config

import (
	"fmt"
	"strconv"
	"strings"

	"git.lost.host/meutraa/rubi/internal/judge"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	Directory   = kingpin.Arg("directory", "Song/chart directory").Required().ExistingDir()
	Rate        = kingpin.Flag("rate", "Playback speed").Default("1.0").Short('r').Float64()
	Offset      = kingpin.Flag("offset", "Global audio offset in ms").Default("0").Short('o').Float64()
	Delay       = kingpin.Flag("delay", "Start delay").Default("1.5s").Short('d').Duration()
	FramePeriod = kingpin.Flag("frame-period", "Tick period").Default("2ms").Short('p').Duration()
	Autoplay    = kingpin.Flag("autoplay", "Let the computer play").Short('a').Bool()
	Keys        = kingpin.Flag("keys", "Lane key bindings").Default("dfjk").Short('k').String()
	Device      = kingpin.Flag("device", "Evdev device for press/release edges (holds need this)").String()
	Codes       = kingpin.Flag("codes", "Comma separated evdev scan codes, one per lane").Default("32,33,36,37").String()
	Lookahead   = kingpin.Flag("lookahead", "Note spawn lookahead in ms").Default("2000").Float64()
	Resync      = kingpin.Flag("resync", "Audio resync threshold in ms").Default("150").Float64()
	Database    = kingpin.Flag("database", "Replay database path").Default("./replays.db").String()
	Replay      = kingpin.Flag("replay", "Play back a saved replay by id").String()
	windows     = kingpin.Flag("windows", "Judgement windows perfect..bad in ms").Default("16,40,73,103,139").String()

	Windows judge.Windows
)

// Init parses the command line and derives the judgement windows.
// Kept out of package init so importing this from a test does not
// fight the go test flag set.
func Init() error {
	kingpin.Version("0.1.0")
	kingpin.Parse()

	parts := strings.Split(*windows, ",")
	if len(parts) != len(Windows) {
		return fmt.Errorf("expected %d judgement windows, got %d", len(Windows), len(parts))
	}
	for i, part := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if nil != err {
			return fmt.Errorf("bad judgement window %q: %w", part, err)
		}
		if i > 0 && w <= Windows[i-1] {
			return fmt.Errorf("judgement windows must be strictly ascending")
		}
		Windows[i] = w
	}
	return nil
}
