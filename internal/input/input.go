package input

// Event is one press or release edge for a bound action. Echo marks
// key repeat events, which the judgement pipeline ignores.
type Event struct {
	Action  string
	Lane    int
	Pressed bool
	Echo    bool
}

// Source delivers the edges that occurred since the last poll.
type Source interface {
	Poll() []Event
	Close() error
}
