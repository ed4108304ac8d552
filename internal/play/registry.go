package play

import (
	"git.lost.host/meutraa/rubi/internal/chart"
	"git.lost.host/meutraa/rubi/internal/judge"
)

// NoteTypeModule hooks one note type tag into the pipeline. OnHit may
// mutate the result (rating, flags) before it is committed.
type NoteTypeModule interface {
	OnInitialize(notes []*chart.NoteData)
	OnSpawn(note *chart.NoteData)
	OnHit(result *judge.NoteResult)
}

// Registry maps note type tags to their modules. Modules run in
// registration order, so override precedence is explicit.
type Registry struct {
	order   []string
	modules map[string]NoteTypeModule
}

func NewRegistry() *Registry {
	return &Registry{modules: map[string]NoteTypeModule{}}
}

func (r *Registry) Register(tag string, m NoteTypeModule) {
	if _, ok := r.modules[tag]; !ok {
		r.order = append(r.order, tag)
	}
	r.modules[tag] = m
}

// Initialize hands every module the notes carrying its tag.
func (r *Registry) Initialize(notes []*chart.NoteData) {
	byTag := map[string][]*chart.NoteData{}
	for _, n := range notes {
		if n.Type != "" {
			byTag[n.Type] = append(byTag[n.Type], n)
		}
	}
	for _, tag := range r.order {
		if tagged := byTag[tag]; len(tagged) > 0 {
			r.modules[tag].OnInitialize(tagged)
		}
	}
}

func (r *Registry) spawn(n *chart.NoteData) {
	if m, ok := r.modules[n.Type]; ok {
		m.OnSpawn(n)
	}
}

func (r *Registry) hit(result *judge.NoteResult) {
	if m, ok := r.modules[result.Note.Type]; ok {
		m.OnHit(result)
	}
}
