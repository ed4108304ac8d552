package chart

// NoteData is one authored note. MeasureTime/MeasureLength are the
// authored fields, the Ms* and Sv* fields are derived by ConvertData
// and recomputed whenever the owning chart's tempo or SV lists change.
type NoteData struct {
	Lane          int               `yaml:"lane"`
	Type          string            `yaml:"type,omitempty"`
	Parameters    map[string]string `yaml:"parameters,omitempty"`
	MeasureTime   float64           `yaml:"time"`
	MeasureLength float64           `yaml:"length,omitempty"`

	MsTime          float64 `yaml:"-"`
	MsLength        float64 `yaml:"-"`
	StartingSvIndex int     `yaml:"-"`
	EndingSvIndex   int     `yaml:"-"`

	CountsTowardScore bool `yaml:"-"`

	// Runtime state, untouched by the codecs
	Spawned    bool `yaml:"-"`
	Hit        bool `yaml:"-"`
	ShouldMiss bool `yaml:"-"`
}

// IsHold reports whether the note requires sustained input.
func (n *NoteData) IsHold() bool {
	return n.MeasureLength > 0
}

func (n *NoteData) MeasureEnd() float64 {
	return n.MeasureTime + n.MeasureLength
}

func (n *NoteData) MsEnd() float64 {
	return n.MsTime + n.MsLength
}
