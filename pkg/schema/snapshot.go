package schema

// Snapshot is an immutable, freshly computed view of a Model.
type Snapshot struct {
	DocumentCount int64
	Fields        []FieldView // First-seen order
}

// FieldView describes one field path.
type FieldView struct {
	Name        string
	Path        string
	Count       int64
	Probability float64 // Count / DocumentCount
	Kinds       []KindView
}

// KindView describes one value kind observed at a path.
type KindView struct {
	Kind        Kind
	Path        string
	Count       int64
	Probability float64 // Count / field Count
	Samples     []any
}

// Snapshot computes field and kind probabilities. It returns ErrEmptyModel
// when no document has been ingested.
func (m *Model) Snapshot() (*Snapshot, error) {
	if m.documentCount == 0 {
		return nil, ErrEmptyModel
	}

	s := &Snapshot{
		DocumentCount: m.documentCount,
		Fields:        make([]FieldView, 0, len(m.fields)),
	}
	docs := float64(m.documentCount)

	for _, f := range m.fields {
		fv := FieldView{
			Name:        f.name,
			Path:        f.path,
			Count:       f.count,
			Probability: float64(f.count) / docs,
			Kinds:       make([]KindView, 0, len(f.kinds)),
		}
		for _, ks := range f.kinds {
			fv.Kinds = append(fv.Kinds, KindView{
				Kind:        ks.kind,
				Path:        ks.path,
				Count:       ks.count,
				Probability: float64(ks.count) / float64(f.count),
				Samples:     ks.samples.Values(),
			})
		}
		s.Fields = append(s.Fields, fv)
	}
	return s, nil
}

// Field returns the view for path.
func (s *Snapshot) Field(path string) (FieldView, bool) {
	for _, f := range s.Fields {
		if f.Path == path {
			return f, true
		}
	}
	return FieldView{}, false
}

// Children returns the fields directly nested under path, in order.
// An empty path returns the root fields.
func (s *Snapshot) Children(path string) []FieldView {
	var out []FieldView
	for _, f := range s.Fields {
		if ParentPath(f.Path, f.Name) == path {
			out = append(out, f)
		}
	}
	return out
}

// Kind returns the view for kind k.
func (f FieldView) Kind(k Kind) (KindView, bool) {
	for _, kv := range f.Kinds {
		if kv.Kind == k {
			return kv, true
		}
	}
	return KindView{}, false
}

// KindNames returns the kind names of the field in first-seen order.
func (f FieldView) KindNames() []string {
	names := make([]string, len(f.Kinds))
	for i, kv := range f.Kinds {
		names[i] = kv.Kind.String()
	}
	return names
}
