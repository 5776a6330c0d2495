package domain

// Memory is the ordered history of surfaced opportunities. Its URLs are
// excluded from later selections.
type Memory struct {
	Opportunities []Opportunity
}

// Seen returns the set of deal URLs already surfaced.
func (m Memory) Seen() map[string]struct{} {
	seen := make(map[string]struct{}, len(m.Opportunities))
	for _, o := range m.Opportunities {
		seen[o.Deal.URL] = struct{}{}
	}
	return seen
}

// Append returns m with opp added at the end.
func (m Memory) Append(opp Opportunity) Memory {
	out := make([]Opportunity, 0, len(m.Opportunities)+1)
	out = append(out, m.Opportunities...)
	return Memory{Opportunities: append(out, opp)}
}

// Len returns the number of remembered opportunities.
func (m Memory) Len() int {
	return len(m.Opportunities)
}
