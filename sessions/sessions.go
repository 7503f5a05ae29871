package sessions

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/SebastianChristoph/brickonizer/analyze"
	"github.com/SebastianChristoph/brickonizer/datastructures"
	"github.com/SebastianChristoph/brickonizer/review"
)

var ErrUnknownImage = errors.New("image not found")

// ImageRecord is one uploaded (or PDF-converted) page. The filename is the
// unique key; the stored pixels can be replaced under the same filename, in
// which case the revision bumps for cache busting.
type ImageRecord struct {
	Filename string `json:"filename"`
	Revision int    `json:"revision"`
	Order    int    `json:"order"`
}

// ImageBoxes is one image's box list in upload order, the unit the analysis
// pipeline walks.
type ImageBoxes struct {
	Filename string
	Boxes    []datastructures.BoundingBox
}

// Session owns everything one user accumulates: uploaded images, the box
// store, the review state over the analysis results and the progress
// counters. All mutations of a session are serialized through its lock;
// sessions are independent of each other.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
	images   []*ImageRecord
	byName   map[string]*ImageRecord
	boxes    map[string][]datastructures.BoundingBox

	Review   *review.State
	Progress *analyze.Progress
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		lastSeen:  now,
		byName:    make(map[string]*ImageRecord),
		boxes:     make(map[string][]datastructures.BoundingBox),
		Review:    review.NewState(),
		Progress:  &analyze.Progress{},
	}
}

// AddImage registers an upload. Re-uploading under the same filename
// replaces the stored pixels, bumps the revision and clears the image's
// boxes (they referred to the old pixels).
func (s *Session) AddImage(filename string) *ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.byName[filename]; ok {
		record.Revision++
		s.boxes[filename] = nil
		return record
	}
	record := &ImageRecord{Filename: filename, Order: len(s.images)}
	s.images = append(s.images, record)
	s.byName[filename] = record
	return record
}

func (s *Session) Image(filename string) (ImageRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byName[filename]
	if !ok {
		return ImageRecord{}, false
	}
	return *record, true
}

// BumpRevision invalidates cached image URLs after an overwrite. Unlike
// AddImage it keeps the boxes: the crop-and-recrop workflow replaces pixels
// in place.
func (s *Session) BumpRevision(filename string) (ImageRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byName[filename]
	if !ok {
		return ImageRecord{}, false
	}
	record.Revision++
	return *record, true
}

// Images returns the records in upload order.
func (s *Session) Images() []ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]ImageRecord, len(s.images))
	for i, record := range s.images {
		records[i] = *record
	}
	return records
}

// Boxes returns the stored box list for an image. Unknown filenames yield
// an empty list, never an error.
func (s *Session) Boxes(filename string) []datastructures.BoundingBox {
	s.mu.Lock()
	defer s.mu.Unlock()
	boxes := make([]datastructures.BoundingBox, len(s.boxes[filename]))
	copy(boxes, s.boxes[filename])
	return boxes
}

// SetBoxes replaces an image's whole box list atomically, last write wins.
// Mutating an unknown image is an explicit failure.
func (s *Session) SetBoxes(filename string, boxes []datastructures.BoundingBox) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[filename]; !ok {
		return 0, ErrUnknownImage
	}
	stored := make([]datastructures.BoundingBox, len(boxes))
	copy(stored, boxes)
	s.boxes[filename] = stored
	return len(stored), nil
}

func (s *Session) BoxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, boxes := range s.boxes {
		count += len(boxes)
	}
	return count
}

// ImagesWithBoxes snapshots all box lists in upload order; the analysis
// pipeline derives its item order from this.
func (s *Session) ImagesWithBoxes() []ImageBoxes {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]ImageBoxes, 0, len(s.images))
	for _, record := range s.images {
		boxes := make([]datastructures.BoundingBox, len(s.boxes[record.Filename]))
		copy(boxes, s.boxes[record.Filename])
		result = append(result, ImageBoxes{Filename: record.Filename, Boxes: boxes})
	}
	return result
}

func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) Age() time.Duration {
	return time.Since(s.CreatedAt)
}

// Store holds all live sessions. Expiry is checked on access: a session
// that has been idle longer than maxAge is discarded (including its stored
// files, via onExpire) before the caller sees it.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxAge   time.Duration
	onExpire func(*Session)
	newID    func() string
}

func NewStore(maxAge time.Duration, newID func() string, onExpire func(*Session)) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		maxAge:   maxAge,
		onExpire: onExpire,
		newID:    newID,
	}
}

func (st *Store) Create() *Session {
	st.mu.Lock()
	session := newSession(st.newID())
	st.sessions[session.ID] = session
	st.mu.Unlock()
	log.Debug("[Sessions] Created session ", session.ID)
	return session
}

// Get returns a live session and refreshes its idle timer. Expired or
// unknown ids return ok == false.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	session, ok := st.sessions[id]
	if ok && time.Since(session.IdleSince()) > st.maxAge {
		delete(st.sessions, id)
		st.mu.Unlock()
		st.expire(session)
		return nil, false
	}
	st.mu.Unlock()
	if !ok {
		return nil, false
	}
	session.Touch()
	return session, true
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	session, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		st.expire(session)
	}
}

// Sweep drops every expired session. Called opportunistically, there is no
// background janitor.
func (st *Store) Sweep() int {
	st.mu.Lock()
	var expired []*Session
	for id, session := range st.sessions {
		if time.Since(session.IdleSince()) > st.maxAge {
			delete(st.sessions, id)
			expired = append(expired, session)
		}
	}
	st.mu.Unlock()
	for _, session := range expired {
		st.expire(session)
	}
	return len(expired)
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) expire(session *Session) {
	log.Debug("[Sessions] Discarding session ", session.ID)
	if st.onExpire != nil {
		st.onExpire(session)
	}
}
