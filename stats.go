package objdiff

// Stats holds statistical metadata about a comparison
type Stats struct {
	Nodes      int `json:"nodes"`      // count of value pairs visited
	Leaves     int `json:"leaves"`     // count of leaf comparisons
	Keyed      int `json:"keyed"`      // count of keyed collections visited
	Ordered    int `json:"ordered"`    // count of ordered collections visited
	Composites int `json:"composites"` // count of composites visited
	MaxDepth   int `json:"maxDepth"`   // deepest level reached, the root is 0

	Differences   int `json:"differences"`             // number of differences found
	ShortCircuits int `json:"shortCircuits,omitempty"` // collections reported whole
	Mismatches    int `json:"mismatches,omitempty"`    // values that couldn't be compared
}

// Identical reports whether the comparison found no differences
func (s Stats) Identical() bool {
	return s.Differences == 0
}

// PctChanged returns a value from 0.0 to 1.0 representing the share of
// terminal comparisons (leaves & short-circuited collections) that differed
func (s Stats) PctChanged() float64 {
	terminals := s.Leaves + s.ShortCircuits
	if terminals == 0 {
		return 0
	}
	return float64(s.Differences) / float64(terminals)
}
