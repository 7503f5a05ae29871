package sessions

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SebastianChristoph/brickonizer/datastructures"
)

func testStore(maxAge time.Duration, onExpire func(*Session)) *Store {
	next := 0
	return NewStore(maxAge, func() string {
		next++
		return fmt.Sprintf("session-%d", next)
	}, onExpire)
}

func TestBoxRoundTrip(t *testing.T) {
	session := newSession("s1")
	session.AddImage("page1.jpg")

	boxes := []datastructures.BoundingBox{
		{X: 10, Y: 20, Width: 100, Height: 50},
		{X: 200, Y: 300, Width: 40, Height: 40},
	}
	count, err := session.SetBoxes("page1.jpg", boxes)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 boxes stored, got %d", count)
	}

	got := session.Boxes("page1.jpg")
	if len(got) != 2 || got[0] != boxes[0] || got[1] != boxes[1] {
		t.Fatalf("boxes did not round-trip exactly: %+v", got)
	}

	//last write wins, including emptying the list
	if _, err := session.SetBoxes("page1.jpg", nil); err != nil {
		t.Fatal(err)
	}
	if got := session.Boxes("page1.jpg"); len(got) != 0 {
		t.Fatalf("expected empty list after overwrite, got %+v", got)
	}
}

func TestBoxesForUnknownImage(t *testing.T) {
	session := newSession("s1")

	if got := session.Boxes("nope.jpg"); len(got) != 0 {
		t.Fatalf("unknown image must read as empty, got %+v", got)
	}
	if _, err := session.SetBoxes("nope.jpg", []datastructures.BoundingBox{{Width: 1, Height: 1}}); !errors.Is(err, ErrUnknownImage) {
		t.Fatalf("expected ErrUnknownImage, got %v", err)
	}
}

func TestReuploadBumpsRevisionAndClearsBoxes(t *testing.T) {
	session := newSession("s1")
	first := session.AddImage("page1.jpg")
	if first.Revision != 0 || first.Order != 0 {
		t.Fatalf("unexpected initial record: %+v", first)
	}
	if _, err := session.SetBoxes("page1.jpg", []datastructures.BoundingBox{{Width: 10, Height: 10}}); err != nil {
		t.Fatal(err)
	}

	second := session.AddImage("page1.jpg")
	if second.Revision != 1 {
		t.Fatalf("expected revision 1 after re-upload, got %d", second.Revision)
	}
	if got := session.Boxes("page1.jpg"); len(got) != 0 {
		t.Fatalf("re-upload must clear stale boxes, got %+v", got)
	}
	if len(session.Images()) != 1 {
		t.Fatal("re-upload must not duplicate the record")
	}
}

func TestBumpRevisionKeepsBoxes(t *testing.T) {
	session := newSession("s1")
	session.AddImage("page1.jpg")
	if _, err := session.SetBoxes("page1.jpg", []datastructures.BoundingBox{{Width: 10, Height: 10}}); err != nil {
		t.Fatal(err)
	}

	record, ok := session.BumpRevision("page1.jpg")
	if !ok || record.Revision != 1 {
		t.Fatalf("unexpected record after bump: %+v ok=%v", record, ok)
	}
	if got := session.Boxes("page1.jpg"); len(got) != 1 {
		t.Fatalf("in-place overwrite must keep boxes, got %+v", got)
	}

	if _, ok := session.BumpRevision("nope.jpg"); ok {
		t.Fatal("bump of unknown image must report false")
	}
}

func TestImagesWithBoxesFollowsUploadOrder(t *testing.T) {
	session := newSession("s1")
	session.AddImage("b.jpg")
	session.AddImage("a.jpg")
	session.AddImage("c.jpg")
	if _, err := session.SetBoxes("a.jpg", []datastructures.BoundingBox{{Width: 1, Height: 1}}); err != nil {
		t.Fatal(err)
	}

	snapshot := session.ImagesWithBoxes()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snapshot))
	}
	if snapshot[0].Filename != "b.jpg" || snapshot[1].Filename != "a.jpg" || snapshot[2].Filename != "c.jpg" {
		t.Fatalf("snapshot not in upload order: %+v", snapshot)
	}
	if len(snapshot[1].Boxes) != 1 || len(snapshot[0].Boxes) != 0 {
		t.Fatalf("boxes attached to wrong entries: %+v", snapshot)
	}
	if session.BoxCount() != 1 {
		t.Fatalf("expected box count 1, got %d", session.BoxCount())
	}
}

func TestStoreGetRefreshesIdleTimer(t *testing.T) {
	store := testStore(time.Hour, nil)
	session := store.Create()

	before := session.IdleSince()
	time.Sleep(2 * time.Millisecond)
	got, ok := store.Get(session.ID)
	if !ok || got.ID != session.ID {
		t.Fatalf("lookup failed: %v ok=%v", got, ok)
	}
	if !got.IdleSince().After(before) {
		t.Fatal("access must refresh the idle timer")
	}

	if _, ok := store.Get("no-such-session"); ok {
		t.Fatal("unknown id must report false")
	}
}

func TestExpiredSessionDiscardedOnAccess(t *testing.T) {
	var expired []string
	store := testStore(time.Millisecond, func(session *Session) {
		expired = append(expired, session.ID)
	})
	session := store.Create()

	time.Sleep(5 * time.Millisecond)
	if _, ok := store.Get(session.ID); ok {
		t.Fatal("idle session must be discarded on access")
	}
	if len(expired) != 1 || expired[0] != session.ID {
		t.Fatalf("expiry callback not invoked: %v", expired)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestSweepDropsOnlyIdleSessions(t *testing.T) {
	store := testStore(20*time.Millisecond, nil)
	stale := store.Create()
	time.Sleep(30 * time.Millisecond)
	fresh := store.Create()

	if dropped := store.Sweep(); dropped != 1 {
		t.Fatalf("expected 1 dropped session, got %d", dropped)
	}
	if _, ok := store.Get(stale.ID); ok {
		t.Fatal("stale session survived sweep")
	}
	if _, ok := store.Get(fresh.ID); !ok {
		t.Fatal("fresh session must survive sweep")
	}
}

func TestDeleteInvokesExpiryCallback(t *testing.T) {
	var expired []string
	store := testStore(time.Hour, func(session *Session) {
		expired = append(expired, session.ID)
	})
	session := store.Create()

	store.Delete(session.ID)
	if _, ok := store.Get(session.ID); ok {
		t.Fatal("deleted session still reachable")
	}
	if len(expired) != 1 {
		t.Fatalf("cleanup callback not invoked: %v", expired)
	}

	//deleting twice must not fire the callback again
	store.Delete(session.ID)
	if len(expired) != 1 {
		t.Fatalf("double delete fired callback twice: %v", expired)
	}
}
