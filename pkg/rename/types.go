package rename

import "fmt"

// Auto asks the search to try every subtoken count up to its configured maximum.
const Auto = -1

// Position is a 1-based line/column point in the original source.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Resolution is the identifier found at Origin and every place it occurs.
type Resolution struct {
	Name        string
	Origin      Position
	Occurrences []Position
}

// Request is a single rename query.
type Request struct {
	Code      string
	Line      int
	Column    int
	Subtokens int
}

// Candidate is a decoded name and its pseudo-log-likelihood. Lower PLL is better.
type Candidate struct {
	Name      string
	PLL       float64
	Subtokens int
}

// Result is the chosen candidate plus everything scored on the way there.
type Result struct {
	Candidate
	Original string
	Tried    []Candidate
}
