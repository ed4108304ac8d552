package chartfile

import (
	"fmt"
	"os"
	"path"

	"git.lost.host/meutraa/rubi/internal/chart"
)

type Parser interface {
	Parse(file string) (*chart.RubiChart, error)
}

// DefaultParser dispatches on the file extension and hands back a
// validated, formatted chart with its derived data computed.
type DefaultParser struct {
	// Lanes used when a format does not carry a lane count, e.g. midi
	Lanes int
}

func (p *DefaultParser) Parse(file string) (*chart.RubiChart, error) {
	out, err := p.parse(file)
	if nil != err {
		return nil, err
	}
	if err := out.Validate(); nil != err {
		return nil, fmt.Errorf("%v: %w", file, err)
	}
	for _, c := range out.Charts {
		c.Format()
	}
	out.ConvertData()
	return out, nil
}

func (p *DefaultParser) parse(file string) (*chart.RubiChart, error) {
	switch path.Ext(file) {
	case ".rbc":
		f, err := os.Open(file)
		if nil != err {
			return nil, err
		}
		defer f.Close()
		return Read(f)
	case ".yaml", ".yml":
		f, err := os.Open(file)
		if nil != err {
			return nil, err
		}
		defer f.Close()
		return ReadYaml(f)
	case ".mid", ".midi":
		lanes := p.Lanes
		if lanes == 0 {
			lanes = 4
		}
		return ImportMidi(file, lanes)
	default:
		return nil, fmt.Errorf("unsupported chart format %q", path.Ext(file))
	}
}
