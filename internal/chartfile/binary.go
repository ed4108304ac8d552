package chartfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"

	"git.lost.host/meutraa/rubi/internal/chart"
	"git.lost.host/meutraa/rubi/internal/timing"
)

// Binary chart layout. All integers little endian.
//
//	magic "RBCH", version u32
//	v1: scrollSpeed f64, time changes, charts of tag-byte notes
//	    (tag 0 tap, 1 hold with an extra length f64, 2 mine)
//	v2: v1 plus per-chart SV lists, string note types and a string
//	    parameter map per note, difficulty block
//
// Versions above the newest are read with the newest parser on a best
// effort basis. Version 0 or a bad magic fails closed.
const (
	versionTagged  = 1
	versionCurrent = 2
)

var magic = [4]byte{'R', 'B', 'C', 'H'}

var (
	ErrNotAChart          = errors.New("not a rubi chart file")
	ErrUnsupportedVersion = errors.New("unsupported chart version")
)

const (
	tagTap  = 0
	tagHold = 1
	tagMine = 2
)

// Read decodes a binary chart, dispatching on the version field.
func Read(r io.Reader) (*chart.RubiChart, error) {
	var m [4]byte
	if err := binary.Read(r, binary.LittleEndian, &m); nil != err {
		return nil, err
	}
	if m != magic {
		return nil, ErrNotAChart
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); nil != err {
		return nil, err
	}

	switch {
	case version == versionTagged:
		return readV1(r)
	case version == versionCurrent:
		return readV2(r)
	case version > versionCurrent:
		// Newer than this build. The newest layout is the best guess.
		log.Printf("chart version %d is newer than supported, trying version %d", version, versionCurrent)
		return readV2(r)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

// A corrupt header must fail before its count drives an allocation.
const maxRecordCount = 1 << 20

func readCount(r io.Reader) (uint32, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); nil != err {
		return 0, err
	}
	if count > maxRecordCount {
		return 0, fmt.Errorf("%w: implausible record count %d", ErrNotAChart, count)
	}
	return count, nil
}

func readTimeChanges(r io.Reader) ([]timing.TimeChange, error) {
	count, err := readCount(r)
	if nil != err {
		return nil, err
	}
	changes := make([]timing.TimeChange, count)
	for i := range changes {
		var rec struct {
			Measure float64
			Bpm     float64
			Num     uint8
			Denom   uint8
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); nil != err {
			return nil, err
		}
		changes[i] = timing.TimeChange{
			Measure:            rec.Measure,
			Bpm:                rec.Bpm,
			TimeSigNumerator:   int(rec.Num),
			TimeSigDenominator: int(rec.Denom),
		}
	}
	return changes, nil
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); nil != err {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); nil != err {
		return "", err
	}
	return string(buf), nil
}

func readChartHeader(r io.Reader) (*chart.ChartData, error) {
	name, err := readString(r)
	if nil != err {
		return nil, err
	}
	var head struct {
		Lanes    uint8
		Playable uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &head); nil != err {
		return nil, err
	}
	return &chart.ChartData{Name: name, Lanes: int(head.Lanes), Playable: head.Playable != 0}, nil
}

func readV1(r io.Reader) (*chart.RubiChart, error) {
	out := &chart.RubiChart{}
	if err := binary.Read(r, binary.LittleEndian, &out.ScrollSpeed); nil != err {
		return nil, err
	}
	changes, err := readTimeChanges(r)
	if nil != err {
		return nil, err
	}
	out.TimeChanges = changes

	chartCount, err := readCount(r)
	if nil != err {
		return nil, err
	}
	for ci := uint32(0); ci < chartCount; ci++ {
		c, err := readChartHeader(r)
		if nil != err {
			return nil, err
		}
		noteCount, err := readCount(r)
		if nil != err {
			return nil, err
		}
		for ni := uint32(0); ni < noteCount; ni++ {
			var head struct {
				Tag  uint8
				Lane uint8
				Time float64
			}
			if err := binary.Read(r, binary.LittleEndian, &head); nil != err {
				return nil, err
			}
			n := &chart.NoteData{Lane: int(head.Lane), MeasureTime: head.Time}
			switch head.Tag {
			case tagTap:
			case tagHold:
				if err := binary.Read(r, binary.LittleEndian, &n.MeasureLength); nil != err {
					return nil, err
				}
			case tagMine:
				n.Type = "mine"
				n.ShouldMiss = true
			default:
				return nil, fmt.Errorf("%w: unknown note tag %d", ErrUnsupportedVersion, head.Tag)
			}
			c.Notes = append(c.Notes, n)
		}
		out.Charts = append(out.Charts, c)
	}
	return out, nil
}

func readV2(r io.Reader) (*chart.RubiChart, error) {
	out := &chart.RubiChart{}
	if err := binary.Read(r, binary.LittleEndian, &out.ScrollSpeed); nil != err {
		return nil, err
	}

	name, err := readString(r)
	if nil != err {
		return nil, err
	}
	var rating int32
	if err := binary.Read(r, binary.LittleEndian, &rating); nil != err {
		return nil, err
	}
	out.Difficulty = chart.Difficulty{Name: name, Rating: int(rating)}

	changes, err := readTimeChanges(r)
	if nil != err {
		return nil, err
	}
	out.TimeChanges = changes

	chartCount, err := readCount(r)
	if nil != err {
		return nil, err
	}
	for ci := uint32(0); ci < chartCount; ci++ {
		c, err := readChartHeader(r)
		if nil != err {
			return nil, err
		}

		svCount, err := readCount(r)
		if nil != err {
			return nil, err
		}
		for si := uint32(0); si < svCount; si++ {
			var sv struct {
				Measure    float64
				Multiplier float64
			}
			if err := binary.Read(r, binary.LittleEndian, &sv); nil != err {
				return nil, err
			}
			c.SvChanges = append(c.SvChanges, timing.SvChange{Measure: sv.Measure, Multiplier: sv.Multiplier})
		}

		noteCount, err := readCount(r)
		if nil != err {
			return nil, err
		}
		for ni := uint32(0); ni < noteCount; ni++ {
			var head struct {
				Lane   uint8
				Time   float64
				Length float64
			}
			if err := binary.Read(r, binary.LittleEndian, &head); nil != err {
				return nil, err
			}
			n := &chart.NoteData{
				Lane:          int(head.Lane),
				MeasureTime:   head.Time,
				MeasureLength: head.Length,
			}
			if n.Type, err = readString(r); nil != err {
				return nil, err
			}
			var paramCount uint16
			if err := binary.Read(r, binary.LittleEndian, &paramCount); nil != err {
				return nil, err
			}
			for pi := uint16(0); pi < paramCount; pi++ {
				key, err := readString(r)
				if nil != err {
					return nil, err
				}
				value, err := readString(r)
				if nil != err {
					return nil, err
				}
				if nil == n.Parameters {
					n.Parameters = map[string]string{}
				}
				n.Parameters[key] = value
			}
			c.Notes = append(c.Notes, n)
		}
		out.Charts = append(out.Charts, c)
	}
	return out, nil
}
