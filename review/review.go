package review

import (
	"errors"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/SebastianChristoph/brickonizer/bricklink"
	"github.com/SebastianChristoph/brickonizer/datastructures"
)

var (
	ErrNotFound          = errors.New("part not found")
	ErrMissingPartNumber = errors.New("part number is required")
	ErrMissingColor      = errors.New("color is required")
	ErrBadQuantity       = errors.New("quantity must be at least 1")
	ErrBadAlternative    = errors.New("no such alternative candidate")
)

const (
	maxUserParts    = 20
	maxRecentColors = 10
)

// State is the review wizard over one session's PartResult list: a dense
// array of parts, the set of indices that have been finalized and a cursor.
// Every mutation goes through the state's lock; indices shift down on
// removal and the reviewed set shifts with them.
type State struct {
	mu           sync.Mutex
	parts        []datastructures.PartResult
	reviewed     map[int]bool
	cursor       int
	userParts    []datastructures.QuickPickPart
	recentColors []string
}

func NewState() *State {
	return &State{reviewed: make(map[int]bool)}
}

// Reset drops all parts and review marks before a new analysis run. The
// quick-pick helpers survive, they are session-scoped.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts = nil
	s.reviewed = make(map[int]bool)
	s.cursor = 0
}

// Append adds one PartResult at the end of the list. Called by the analysis
// pipeline as results are produced.
func (s *State) Append(part datastructures.PartResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts = append(s.parts, part)
}

func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.parts)
}

// Entries returns a copy of all parts with their index and reviewed mark.
func (s *State) Entries() []datastructures.ResultEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]datastructures.ResultEntry, len(s.parts))
	for i, part := range s.parts {
		entries[i] = datastructures.ResultEntry{Index: i, Reviewed: s.reviewed[i], PartResult: part}
	}
	return entries
}

// Parts returns a copy of the raw part list, for the export formatter.
func (s *State) Parts() []datastructures.PartResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts := make([]datastructures.PartResult, len(s.parts))
	copy(parts, s.parts)
	return parts
}

func (s *State) Part(i int) (datastructures.PartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.parts) {
		return datastructures.PartResult{}, ErrNotFound
	}
	return s.parts[i], nil
}

// Save commits part number, color and quantity for one part and marks it
// reviewed. If the part was unrecognized or had been rejected via no-match,
// the user clearly identified it by hand, so it is registered in the
// session's quick-pick helper.
func (s *State) Save(i int, partNum, color string, quantity int) error {
	if partNum == "" {
		return ErrMissingPartNumber
	}
	if color == "" {
		return ErrMissingColor
	}
	if quantity < 1 {
		return ErrBadQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.parts) {
		return ErrNotFound
	}

	part := &s.parts[i]
	userIdentified := !part.Recognized || part.NoMatch

	part.FinalPartNumber = partNum
	if id, name, ok := bricklink.Resolve(color); ok {
		part.FinalColorID = strconv.Itoa(id)
		part.FinalColorName = name
	} else {
		//unmapped colors stay exportable as JSON, the XML export drops
		//them with a warning
		part.FinalColorID = ""
		part.FinalColorName = color
	}
	part.FinalQuantity = quantity
	part.Skip = false
	part.Unknown = false
	s.reviewed[i] = true

	if userIdentified {
		s.rememberPart(partNum, part.PartName)
	}
	s.rememberColor(part.FinalColorName)
	return nil
}

// Skip defers a part. It is deliberately NOT marked reviewed so the wizard
// offers it again on the next pass.
func (s *State) Skip(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.parts) {
		return ErrNotFound
	}
	part := &s.parts[i]
	part.Skip = true
	part.Unknown = false
	part.FinalPartNumber = ""
	return nil
}

// Unknown marks a part as intentionally unresolved. Terminal for the
// session.
func (s *State) Unknown(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.parts) {
		return ErrNotFound
	}
	part := &s.parts[i]
	part.Unknown = true
	part.Skip = false
	part.FinalPartNumber = ""
	s.reviewed[i] = true
	return nil
}

// NoMatch records that none of the recognizer's candidates were correct.
// The part flips back to unrecognized; a later Save with a manual part
// number is still possible.
func (s *State) NoMatch(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.parts) {
		return ErrNotFound
	}
	part := &s.parts[i]
	part.NoMatch = true
	part.Recognized = false
	s.reviewed[i] = true
	return nil
}

// Remove deletes one part outright. All later indices shift down by one:
// the reviewed set is re-indexed and the cursor adjusted so no caller ends
// up pointing at the wrong part.
func (s *State) Remove(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.parts) {
		return ErrNotFound
	}

	s.parts = append(s.parts[:i], s.parts[i+1:]...)

	reviewed := make(map[int]bool, len(s.reviewed))
	for j := range s.reviewed {
		switch {
		case j < i:
			reviewed[j] = true
		case j > i:
			reviewed[j-1] = true
		}
	}
	s.reviewed = reviewed

	if s.cursor > i {
		s.cursor--
	}
	if s.cursor >= len(s.parts) {
		s.cursor = 0
	}

	log.Debug("[Review] Removed part ", i, ", ", len(s.parts), " part(s) left")
	return nil
}

// SelectAlternative exchanges the displayed candidate with alternative k
// (1-indexed into the raw candidate list). The previously displayed
// candidate takes slot k, nothing is discarded, so the swap is fully
// reversible for back-and-forth comparison.
func (s *State) SelectAlternative(i, k int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.parts) {
		return ErrNotFound
	}
	part := &s.parts[i]
	if k < 1 || k >= len(part.RawCandidates) {
		return ErrBadAlternative
	}

	part.RawCandidates[0], part.RawCandidates[k] = part.RawCandidates[k], part.RawCandidates[0]
	best := part.RawCandidates[0]
	part.PartID = best.ID
	part.PartName = best.Name
	part.Confidence = best.Score
	return nil
}

// Next moves the cursor to the next index that has not been reviewed yet,
// scanning forward and wrapping around to the start. When every index is
// reviewed it reports done instead of moving the cursor: the wizard
// advances to export.
func (s *State) Next() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.parts)
	if n == 0 {
		return 0, true
	}
	for offset := 1; offset <= n; offset++ {
		j := (s.cursor + offset) % n
		if !s.reviewed[j] {
			s.cursor = j
			return j, false
		}
	}
	return s.cursor, true
}

// Previous moves the cursor one step back for re-inspection. Reviewed marks
// are untouched.
func (s *State) Previous() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor > 0 {
		s.cursor--
	}
	return s.cursor
}

func (s *State) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *State) ReviewedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reviewed)
}

func (s *State) Reviewed(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviewed[i]
}
