package library

import (
	"errors"
	"fmt"
	"testing"
)

// checkContiguousPositions asserts the hold positions for itemID are exactly
// {1..N}.
func checkContiguousPositions(t *testing.T, s *Store, itemID int64) {
	t.Helper()
	var positions []int
	if err := s.db.Select(&positions, `SELECT position FROM holds WHERE item_id=? ORDER BY position`, itemID); err != nil {
		t.Fatalf("select positions: %v", err)
	}
	for i, p := range positions {
		if p != i+1 {
			t.Fatalf("positions not contiguous: %v", positions)
		}
	}
}

// holdFixture returns a checked-out item plus the borrower and three waiting
// patrons.
func holdFixture(t *testing.T, s *Store) (itemID, borrower, p1, p2, p3 int64) {
	t.Helper()
	loans := NewLoanManager(s)
	itemID = addFiction(t, s, "In Demand", "Author", 2015)
	borrower = addPatron(t, s, "alice_p")
	p1 = addPatron(t, s, "bob_p")
	p2 = addPatron(t, s, "charlie_p")
	p3 = addPatron(t, s, "diana_p")
	if err := loans.Borrow(borrower, itemID); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	return
}

func TestPlaceHoldAssignsFIFOPositions(t *testing.T) {
	s := tempDB(t)
	holds := NewHoldManager(s)
	itemID, _, p1, p2, p3 := holdFixture(t, s)

	for i, uid := range []int64{p1, p2, p3} {
		pos, err := holds.PlaceHold(uid, itemID)
		if err != nil {
			t.Fatalf("hold %d: %v", i+1, err)
		}
		if pos != i+1 {
			t.Fatalf("hold %d: want position %d, got %d", i+1, i+1, pos)
		}
	}

	n, err := holds.CountForItem(itemID)
	if err != nil || n != 3 {
		t.Fatalf("count: n=%d err=%v, want 3 nil", n, err)
	}
	checkContiguousPositions(t, s, itemID)
}

func TestPlaceHoldOnAvailableItem(t *testing.T) {
	s := tempDB(t)
	holds := NewHoldManager(s)

	itemID := addFiction(t, s, "On Shelf", "Author", 2015)
	userID := addPatron(t, s, "alice_p")

	if _, err := holds.PlaceHold(userID, itemID); !errors.Is(err, ErrItemAvailable) {
		t.Fatalf("want ErrItemAvailable, got %v", err)
	}
	if n, _ := holds.CountForItem(itemID); n != 0 {
		t.Fatalf("refused hold must not be recorded, count %d", n)
	}
}

func TestPlaceHoldDuplicate(t *testing.T) {
	s := tempDB(t)
	holds := NewHoldManager(s)
	itemID, _, p1, _, _ := holdFixture(t, s)

	if _, err := holds.PlaceHold(p1, itemID); err != nil {
		t.Fatalf("first hold: %v", err)
	}
	if _, err := holds.PlaceHold(p1, itemID); !errors.Is(err, ErrDuplicateHold) {
		t.Fatalf("want ErrDuplicateHold, got %v", err)
	}
	if n, _ := holds.CountForItem(itemID); n != 1 {
		t.Fatalf("duplicate must not change state, count %d", n)
	}
	checkContiguousPositions(t, s, itemID)
}

func TestPlaceHoldMissingUserOrItem(t *testing.T) {
	s := tempDB(t)
	holds := NewHoldManager(s)
	itemID, _, p1, _, _ := holdFixture(t, s)

	if _, err := holds.PlaceHold(9999, itemID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: want ErrNotFound, got %v", err)
	}
	if _, err := holds.PlaceHold(p1, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing item: want ErrNotFound, got %v", err)
	}
}

func TestCancelHoldRenumbers(t *testing.T) {
	s := tempDB(t)
	holds := NewHoldManager(s)
	itemID, _, p1, p2, p3 := holdFixture(t, s)

	for _, uid := range []int64{p1, p2, p3} {
		if _, err := holds.PlaceHold(uid, itemID); err != nil {
			t.Fatalf("hold: %v", err)
		}
	}

	// Cancel the middle of the queue; the tail moves up, the head stays.
	if err := holds.CancelHold(p2, itemID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if pos, _ := holds.PositionOf(p1, itemID); pos != 1 {
		t.Fatalf("head should stay at 1, got %d", pos)
	}
	if pos, _ := holds.PositionOf(p3, itemID); pos != 2 {
		t.Fatalf("tail should move to 2, got %d", pos)
	}
	checkContiguousPositions(t, s, itemID)

	if err := holds.CancelHold(p2, itemID); !errors.Is(err, ErrNoSuchHold) {
		t.Fatalf("second cancel: want ErrNoSuchHold, got %v", err)
	}
}

func TestPositionOfUnknownHold(t *testing.T) {
	s := tempDB(t)
	holds := NewHoldManager(s)
	itemID, _, p1, _, _ := holdFixture(t, s)

	if _, err := holds.PositionOf(p1, itemID); !errors.Is(err, ErrNoSuchHold) {
		t.Fatalf("want ErrNoSuchHold, got %v", err)
	}
}

func TestReturnDoesNotTouchHolds(t *testing.T) {
	s := tempDB(t)
	loans := NewLoanManager(s)
	holds := NewHoldManager(s)
	itemID, borrower, p1, p2, _ := holdFixture(t, s)

	if _, err := holds.PlaceHold(p1, itemID); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if _, err := holds.PlaceHold(p2, itemID); err != nil {
		t.Fatalf("hold: %v", err)
	}

	if err := loans.Return(borrower, itemID); err != nil {
		t.Fatalf("return: %v", err)
	}

	// Queue is exactly as it was; the item just sits available.
	if n, _ := holds.CountForItem(itemID); n != 2 {
		t.Fatalf("return changed the queue, count %d", n)
	}
	if pos, _ := holds.PositionOf(p1, itemID); pos != 1 {
		t.Fatalf("p1 position changed to %d", pos)
	}
	it, _ := s.LoadItem(itemID)
	if !it.Available {
		t.Fatalf("item should be available")
	}
	checkContiguousPositions(t, s, itemID)
}

func TestListForUser(t *testing.T) {
	s := tempDB(t)
	loans := NewLoanManager(s)
	holds := NewHoldManager(s)

	alice := addPatron(t, s, "alice_p")
	bob := addPatron(t, s, "bob_p")

	var itemIDs []int64
	for i := 0; i < 3; i++ {
		id := addFiction(t, s, fmt.Sprintf("Wanted %d", i+1), "Author", 2010+i)
		itemIDs = append(itemIDs, id)
		if err := loans.Borrow(alice, id); err != nil {
			t.Fatalf("borrow: %v", err)
		}
	}

	for _, id := range itemIDs {
		if _, err := holds.PlaceHold(bob, id); err != nil {
			t.Fatalf("hold: %v", err)
		}
	}

	held, err := holds.ListForUser(bob)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(held) != 3 {
		t.Fatalf("want 3 held items, got %d", len(held))
	}
	for _, h := range held {
		if h.Position != 1 {
			t.Fatalf("bob is alone in each queue, want position 1, got %d", h.Position)
		}
	}
}

func TestQueueForItem(t *testing.T) {
	s := tempDB(t)
	holds := NewHoldManager(s)
	itemID, _, p1, p2, _ := holdFixture(t, s)

	if _, err := holds.PlaceHold(p1, itemID); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if _, err := holds.PlaceHold(p2, itemID); err != nil {
		t.Fatalf("hold: %v", err)
	}

	queue, err := holds.QueueForItem(itemID)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 2 || queue[0].UserID != p1 || queue[1].UserID != p2 {
		t.Fatalf("unexpected queue: %+v", queue)
	}
	if queue[0].Position != 1 || queue[1].Position != 2 {
		t.Fatalf("positions wrong: %+v", queue)
	}
}

func TestHoldsIndependentAcrossItems(t *testing.T) {
	s := tempDB(t)
	loans := NewLoanManager(s)
	holds := NewHoldManager(s)

	alice := addPatron(t, s, "alice_p")
	bob := addPatron(t, s, "bob_p")
	charlie := addPatron(t, s, "charlie_p")

	itemA := addFiction(t, s, "Item A", "Author", 2001)
	itemB := addFiction(t, s, "Item B", "Author", 2002)
	if err := loans.Borrow(alice, itemA); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := loans.Borrow(alice, itemB); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	if pos, _ := holds.PlaceHold(bob, itemA); pos != 1 {
		t.Fatalf("bob on A: want 1, got %d", pos)
	}
	if pos, _ := holds.PlaceHold(charlie, itemA); pos != 2 {
		t.Fatalf("charlie on A: want 2, got %d", pos)
	}
	// A fresh queue starts back at 1.
	if pos, _ := holds.PlaceHold(charlie, itemB); pos != 1 {
		t.Fatalf("charlie on B: want 1, got %d", pos)
	}

	checkContiguousPositions(t, s, itemA)
	checkContiguousPositions(t, s, itemB)
}
