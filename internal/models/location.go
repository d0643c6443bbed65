package models

// Stop is a single clue/location unit within a hunt
type Stop struct {
	ID       string  `json:"id"`
	OrgID    string  `json:"orgId"`
	HuntID   string  `json:"huntId"`
	Title    string  `json:"title"`
	Clue     string  `json:"clue"`
	Hints    []string `json:"hints,omitempty"`
	Position int     `json:"position"`
}

// StopIDs extracts the ordered ids from a stop list
func StopIDs(stops []*Stop) []string {
	ids := make([]string, 0, len(stops))
	for _, s := range stops {
		ids = append(ids, s.ID)
	}
	return ids
}
