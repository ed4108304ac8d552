package chartfile

import (
	"errors"
	"fmt"
	"os"

	"git.lost.host/meutraa/rubi/internal/chart"
	"git.lost.host/meutraa/rubi/internal/timing"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ImportMidi converts a standard MIDI file into a single-bar-line
// chart. Tempo and meter events become TimeChanges, note pitches are
// folded onto lanes, and notes sustained for at least one beat import
// as holds. Measures are counted in quarter-note groups of four, the
// usual convention for charts authored against a click.
func ImportMidi(file string, lanes int) (rc *chart.RubiChart, e error) {
	// the smf reader panics on some malformed files
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	f, err := os.Open(file)
	if nil != err {
		return nil, err
	}
	defer f.Close()

	data, err := smf.ReadFrom(f)
	if nil != err {
		return nil, fmt.Errorf("unable to parse midi file: %w", err)
	}

	ticks, ok := data.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, errors.New("unsupported midi time format, expected metric ticks")
	}
	tpq := float64(ticks)
	measureOf := func(absTicks uint64) float64 {
		return float64(absTicks) / tpq / 4.0
	}

	out := &chart.RubiChart{ScrollSpeed: 1.0}
	c := &chart.ChartData{Name: "imported", Lanes: lanes, Playable: true}

	type openNote struct {
		start uint64
		note  *chart.NoteData
	}
	open := map[uint8]*openNote{}

	for _, track := range data.Tracks {
		var absTicks uint64
		for _, event := range track {
			absTicks += uint64(event.Delta)

			var bpm float64
			var num, denom uint8
			var channel, key, velocity uint8

			switch {
			case event.Message.GetMetaTempo(&bpm):
				out.TimeChanges = append(out.TimeChanges, timing.TimeChange{
					Measure:            measureOf(absTicks),
					Bpm:                bpm,
					TimeSigNumerator:   timing.DefaultTimeSigNumerator,
					TimeSigDenominator: timing.DefaultTimeSigDenominator,
				})
			case event.Message.GetMetaMeter(&num, &denom):
				if len(out.TimeChanges) > 0 {
					last := &out.TimeChanges[len(out.TimeChanges)-1]
					last.TimeSigNumerator = int(num)
					last.TimeSigDenominator = int(denom)
				}
			case event.Message.GetNoteStart(&channel, &key, &velocity):
				n := &chart.NoteData{
					Lane:        int(key) % lanes,
					MeasureTime: measureOf(absTicks),
				}
				open[key] = &openNote{start: absTicks, note: n}
				c.Notes = append(c.Notes, n)
			case event.Message.GetNoteEnd(&channel, &key):
				held, ok := open[key]
				if !ok {
					continue
				}
				delete(open, key)
				if float64(absTicks-held.start) >= tpq {
					held.note.MeasureLength = measureOf(absTicks) - held.note.MeasureTime
				}
			}
		}
	}

	if len(out.TimeChanges) == 0 {
		out.TimeChanges = []timing.TimeChange{{
			Bpm:                120,
			TimeSigNumerator:   timing.DefaultTimeSigNumerator,
			TimeSigDenominator: timing.DefaultTimeSigDenominator,
		}}
	}

	c.Format()
	out.Charts = []*chart.ChartData{c}
	return out, nil
}
