package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"git.lost.host/meutraa/rubi/internal/audio"
	"git.lost.host/meutraa/rubi/internal/chart"
	"git.lost.host/meutraa/rubi/internal/chartfile"
	"git.lost.host/meutraa/rubi/internal/config"
	"git.lost.host/meutraa/rubi/internal/input"
	"git.lost.host/meutraa/rubi/internal/judge"
	"git.lost.host/meutraa/rubi/internal/play"
	"git.lost.host/meutraa/rubi/internal/score"
	"golang.org/x/term"
)

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

// ui is a minimal ANSI stats panel. Note visuals belong to a host
// renderer, not this player.
type ui struct {
	buffer strings.Builder
	col    int
}

func (u *ui) init() {
	fmt.Printf("%s%s%s",
		"\033[?1049h", // Enable alternate buffer
		"\033[?25l",   // Make the cursor invisible
		"\033[J",      // Clear the screen
	)
}

func (u *ui) deinit() {
	fmt.Printf("%s%s",
		"\033[?1049l", // Disable alternate buffer
		"\033[?25h",   // Make the cursor visible
	)
}

func (u *ui) fill(row int, message string) {
	u.buffer.WriteString("\033[")
	u.buffer.WriteString(strconv.Itoa(row))
	u.buffer.WriteString(";")
	u.buffer.WriteString(strconv.Itoa(u.col))
	u.buffer.WriteString("H\033[K")
	u.buffer.WriteString(message)
}

func (u *ui) flush() {
	os.Stdout.WriteString(u.buffer.String())
	u.buffer.Reset()
}

func findSongFiles(dir string) (audioFile, chartFile string, err error) {
	err = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if nil != err {
			return err
		}
		switch path.Ext(info.Name()) {
		case ".mp3", ".ogg":
			audioFile = p
		case ".rbc", ".yaml", ".yml", ".mid", ".midi":
			chartFile = p
		}
		return nil
	})
	if nil != err {
		return "", "", fmt.Errorf("unable to walk song directory: %w", err)
	}
	if audioFile == "" || chartFile == "" {
		return "", "", errors.New("unable to find a chart and an .mp3/.ogg file in the given directory")
	}
	return audioFile, chartFile, nil
}

func run() error {
	if err := config.Init(); nil != err {
		return err
	}

	audioFile, chartFile, err := findSongFiles(*config.Directory)
	if nil != err {
		return err
	}
	log.Printf("Opening %v (%v)\n", audioFile, chartFile)

	keys := []rune(*config.Keys)
	var psr chartfile.Parser = &chartfile.DefaultParser{Lanes: len(keys)}
	song, err := psr.Parse(chartFile)
	if nil != err {
		return err
	}

	clock, err := audio.Open(audioFile)
	if nil != err {
		return err
	}
	defer clock.Close()

	store := &score.Store{}
	if err := store.Init(*config.Database); nil != err {
		return err
	}
	defer store.Deinit()

	registry := play.NewRegistry()
	registry.Register("mine", &play.MineModule{})

	p, err := play.New(song, clock, registry, play.Options{
		Windows:     config.Windows,
		LookaheadMs: *config.Lookahead,
		ResyncMs:    *config.Resync,
		Autoplay:    *config.Autoplay,
	})
	if nil != err {
		return err
	}
	p.Conductor.Offset = *config.Offset

	endMs := 0.0
	var played *chart.ChartData
	for _, c := range song.Charts {
		if c.Playable && nil == played {
			played = c
		}
		for _, n := range c.Notes {
			if n.MsEnd() > endMs {
				endMs = n.MsEnd()
			}
		}
	}
	endMs += 3000

	quit := false
	rate := *config.Rate
	replaying := "" != *config.Replay
	var source input.Source
	if replaying {
		if nil == played {
			return errors.New("unable to replay: chart has no playable lane set")
		}
		rep, err := findReplay(store, played, *config.Replay)
		if nil != err {
			return err
		}
		rate = rep.Rate
		events := make([]input.TimedEvent, 0, len(rep.Inputs))
		for _, in := range rep.Inputs {
			events = append(events, input.TimedEvent{
				Ms:    in.Ms,
				Event: input.Event{Lane: in.Lane, Pressed: in.Pressed},
			})
		}
		source = input.NewReplaySource(events, p.Conductor.Time)
	} else if "" != *config.Device {
		codes, err := parseScanCodes(*config.Codes)
		if nil != err {
			return err
		}
		if len(codes) < len(keys) {
			return fmt.Errorf("need %d scan codes for %d lanes, got %d", len(keys), len(keys), len(codes))
		}
		dev, err := input.NewDeviceSource(*config.Device, codes[:len(keys)])
		if nil != err {
			return err
		}
		source = dev
	} else {
		kb, err := input.NewKeyboardSource(keys)
		if nil != err {
			return err
		}
		kb.OnQuit = func() { quit = true }
		source = kb
	}
	defer func() {
		if err := source.Close(); nil != err {
			log.Println("unable to close input source:", err)
		}
	}()
	p.Conductor.Speed = rate

	columns, _, err := term.GetSize(int(os.Stdout.Fd()))
	if nil != err {
		return fmt.Errorf("unable to get terminal size: %w", err)
	}
	panel := &ui{col: columns/2 - 18}
	if panel.col < 2 {
		panel.col = 2
	}
	panel.init()
	defer panel.deinit()

	lastRating := judge.Miss
	lastDistance := 0.0
	resyncs := 0
	p.OnStatistics = func(combo int, rating judge.Judgment, distance float64) {
		lastRating = rating
		lastDistance = distance
	}
	p.OnResync = func(driftMs float64) {
		resyncs++
		log.Printf("resynchronized audio, drift was %.0fms", driftMs)
	}

	go func() {
		time.Sleep(*config.Delay)
		if err := clock.Start(rate); nil != err {
			log.Println("unable to start audio:", err)
		}
	}()

	replay := &score.Replay{Rate: rate}
	p.Start(-float64(config.Delay.Milliseconds()))

	ticker := time.NewTicker(*config.FramePeriod)
	defer ticker.Stop()
	for !quit && !p.Failed() && p.Conductor.Time() < endMs {
		<-ticker.C

		events := source.Poll()
		if !replaying {
			now := p.Conductor.Time()
			for _, ev := range events {
				replay.Inputs = append(replay.Inputs, score.ReplayInput{
					Lane: ev.Lane, Ms: now, Pressed: ev.Pressed,
				})
			}
		}
		p.Tick(events)

		panel.fill(4, fmt.Sprintf("     Time:  %7.1fs", p.Conductor.Time()/1000))
		panel.fill(5, fmt.Sprintf("   Health:  %7.2f", p.Score.Health))
		panel.fill(6, fmt.Sprintf("    Combo:  %7v", p.Score.Combo))
		panel.fill(7, fmt.Sprintf(" Accuracy:  %6.2f%%", p.Score.Accuracy))
		panel.fill(8, fmt.Sprintf("    Score:  %7.0f", p.Score.Score))
		panel.fill(9, fmt.Sprintf("     Rank:  %7v", p.Score.Rank()))
		panel.fill(10, fmt.Sprintf("     Last:  %v (%+.1fms)", lastRating, lastDistance))
		panel.fill(11, fmt.Sprintf("  Resyncs:  %7v", resyncs))
		for j := judge.Perfect; j <= judge.Miss; j++ {
			panel.fill(13+int(j), fmt.Sprintf("%9v:  %6v", j, p.Score.Counts[j]))
		}
		panel.flush()
	}
	p.Stop()

	if nil != played && !*config.Autoplay && !replaying {
		replay.Accuracy = p.Score.Accuracy
		replay.Score = p.Score.Score
		store.Save(played, replay)
	}
	return nil
}

func parseScanCodes(s string) ([]uint16, error) {
	parts := strings.Split(s, ",")
	codes := make([]uint16, 0, len(parts))
	for _, part := range parts {
		code, err := strconv.ParseUint(strings.TrimSpace(part), 10, 16)
		if nil != err {
			return nil, fmt.Errorf("unable to parse scan code %q: %w", part, err)
		}
		codes = append(codes, uint16(code))
	}
	return codes, nil
}

func findReplay(store *score.Store, c *chart.ChartData, id string) (*score.Replay, error) {
	replays := store.Load(c)
	for i := range replays {
		if replays[i].ID == id {
			return &replays[i], nil
		}
	}
	return nil, fmt.Errorf("unable to find replay %q for this chart", id)
}
