package chartfile

import (
	"encoding/binary"
	"io"

	"git.lost.host/meutraa/rubi/internal/chart"
)

// Write encodes a chart in the current binary layout.
func Write(w io.Writer, r *chart.RubiChart) error {
	if err := binary.Write(w, binary.LittleEndian, magic); nil != err {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(versionCurrent)); nil != err {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, r.ScrollSpeed); nil != err {
		return err
	}
	if err := writeString(w, r.Difficulty.Name); nil != err {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(r.Difficulty.Rating)); nil != err {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(r.TimeChanges))); nil != err {
		return err
	}
	for _, tc := range r.TimeChanges {
		rec := struct {
			Measure float64
			Bpm     float64
			Num     uint8
			Denom   uint8
		}{tc.Measure, tc.Bpm, uint8(tc.TimeSigNumerator), uint8(tc.TimeSigDenominator)}
		if err := binary.Write(w, binary.LittleEndian, rec); nil != err {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(r.Charts))); nil != err {
		return err
	}
	for _, c := range r.Charts {
		if err := writeChart(w, c); nil != err {
			return err
		}
	}
	return nil
}

func writeChart(w io.Writer, c *chart.ChartData) error {
	if err := writeString(w, c.Name); nil != err {
		return err
	}
	playable := uint8(0)
	if c.Playable {
		playable = 1
	}
	head := struct {
		Lanes    uint8
		Playable uint8
	}{uint8(c.Lanes), playable}
	if err := binary.Write(w, binary.LittleEndian, head); nil != err {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(c.SvChanges))); nil != err {
		return err
	}
	for _, sv := range c.SvChanges {
		rec := struct {
			Measure    float64
			Multiplier float64
		}{sv.Measure, sv.Multiplier}
		if err := binary.Write(w, binary.LittleEndian, rec); nil != err {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(c.Notes))); nil != err {
		return err
	}
	for _, n := range c.Notes {
		rec := struct {
			Lane   uint8
			Time   float64
			Length float64
		}{uint8(n.Lane), n.MeasureTime, n.MeasureLength}
		if err := binary.Write(w, binary.LittleEndian, rec); nil != err {
			return err
		}
		if err := writeString(w, n.Type); nil != err {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(n.Parameters))); nil != err {
			return err
		}
		for key, value := range n.Parameters {
			if err := writeString(w, key); nil != err {
				return err
			}
			if err := writeString(w, value); nil != err {
				return err
			}
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); nil != err {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}
