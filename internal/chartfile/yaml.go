package chartfile

import (
	"io"

	"git.lost.host/meutraa/rubi/internal/chart"
	"gopkg.in/yaml.v3"
)

// ReadYaml decodes the text authoring format.
func ReadYaml(r io.Reader) (*chart.RubiChart, error) {
	var out chart.RubiChart
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&out); nil != err {
		return nil, err
	}
	return &out, nil
}

func WriteYaml(w io.Writer, r *chart.RubiChart) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}
