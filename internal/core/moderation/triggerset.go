package moderation

// TriggerSet is the ordered collection of triggers for one utterance.
// Insertion order is detector emission order. At most one entry per kind:
// a later detection of the same kind replaces the earlier one only when its
// score is strictly higher, so merging is order-independent (max-replace)
type TriggerSet struct {
	order  []TriggerKind
	byKind map[TriggerKind]Trigger
}

// NewTriggerSet returns an empty set, optionally seeded with triggers
func NewTriggerSet(ts ...Trigger) TriggerSet {
	s := TriggerSet{byKind: map[TriggerKind]Trigger{}}
	for _, t := range ts {
		s.Add(t)
	}
	return s
}

// Add inserts t under the max-replace rule
func (s *TriggerSet) Add(t Trigger) {
	if s.byKind == nil {
		s.byKind = map[TriggerKind]Trigger{}
	}
	prev, ok := s.byKind[t.Kind]
	if !ok {
		s.order = append(s.order, t.Kind)
		s.byKind[t.Kind] = t
		return
	}
	if t.Score > prev.Score {
		s.byKind[t.Kind] = t
	}
}

// Merge folds every trigger of other into s under the same rule
func (s *TriggerSet) Merge(other TriggerSet) {
	for _, t := range other.Triggers() {
		s.Add(t)
	}
}

// Len returns the number of distinct kinds present
func (s TriggerSet) Len() int { return len(s.order) }

// Empty reports whether no trigger is present
func (s TriggerSet) Empty() bool { return len(s.order) == 0 }

// Get returns the trigger for kind, if present
func (s TriggerSet) Get(kind TriggerKind) (Trigger, bool) {
	t, ok := s.byKind[kind]
	return t, ok
}

// Has reports whether kind is present
func (s TriggerSet) Has(kind TriggerKind) bool {
	_, ok := s.byKind[kind]
	return ok
}

// Triggers returns the triggers in insertion order
func (s TriggerSet) Triggers() []Trigger {
	out := make([]Trigger, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.byKind[k])
	}
	return out
}

// Kinds returns the kinds in insertion order
func (s TriggerSet) Kinds() []TriggerKind {
	out := make([]TriggerKind, len(s.order))
	copy(out, s.order)
	return out
}

// Max returns the highest-scoring trigger, if any; ties keep the earlier entry
func (s TriggerSet) Max() (Trigger, bool) {
	var best Trigger
	found := false
	for _, k := range s.order {
		t := s.byKind[k]
		if !found || t.Score > best.Score {
			best = t
			found = true
		}
	}
	return best, found
}

// Filter returns a new set keeping only triggers whose score is at or above
// the per-kind threshold; def applies to kinds without a configured threshold
func (s TriggerSet) Filter(thresholds map[TriggerKind]float64, def float64) TriggerSet {
	out := NewTriggerSet()
	for _, k := range s.order {
		t := s.byKind[k]
		th, ok := thresholds[k]
		if !ok {
			th = def
		}
		if t.Score >= th {
			out.Add(t)
		}
	}
	return out
}
