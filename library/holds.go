package library

import (
	"database/sql"
	"errors"
	"fmt"
)

// HoldManager maintains the per-item FIFO wait-lists. For every item the hold
// positions form exactly {1..N}; a user holds at most one position per item.
type HoldManager struct {
	store *Store
}

// NewHoldManager wires a HoldManager onto an explicitly passed store handle.
func NewHoldManager(store *Store) *HoldManager {
	return &HoldManager{store: store}
}

// PlaceHold queues the user at the tail of the item's wait-list. Holds are
// only taken on checked-out items; an available item should be borrowed
// directly. Reading the queue length and inserting the row happen in one
// transaction so two placements can never get the same position.
func (m *HoldManager) PlaceHold(userID, itemID int64) (int, error) {
	tx, err := m.store.db.Begin()
	if err != nil {
		return 0, storeErr("place hold", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id=?)`, userID).Scan(&exists); err != nil {
		return 0, storeErr("place hold", err)
	}
	if !exists {
		return 0, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	var avail bool
	err = tx.QueryRow(`SELECT is_available FROM catalogue_items WHERE id=?`, itemID).Scan(&avail)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return 0, storeErr("place hold", err)
	}
	if avail {
		return 0, fmt.Errorf("item %d: %w", itemID, ErrItemAvailable)
	}

	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM holds WHERE user_id=? AND item_id=?)`, userID, itemID).Scan(&exists); err != nil {
		return 0, storeErr("place hold", err)
	}
	if exists {
		return 0, fmt.Errorf("user %d, item %d: %w", userID, itemID, ErrDuplicateHold)
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM holds WHERE item_id=?`, itemID).Scan(&count); err != nil {
		return 0, storeErr("place hold", err)
	}
	position := count + 1

	if _, err := tx.Exec(`INSERT INTO holds (user_id, item_id, position) VALUES (?,?,?)`, userID, itemID, position); err != nil {
		return 0, storeErr("place hold", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storeErr("place hold", err)
	}
	return position, nil
}

// CancelHold removes the user's hold and closes the gap: every remaining hold
// on the item whose position was greater is moved up by one. The renumbering
// is best-effort; if it fails the cancellation still stands and the
// inconsistency is logged for repair.
func (m *HoldManager) CancelHold(userID, itemID int64) error {
	tx, err := m.store.db.Begin()
	if err != nil {
		return storeErr("cancel hold", err)
	}
	defer tx.Rollback()

	var cancelled int
	err = tx.QueryRow(`SELECT position FROM holds WHERE user_id=? AND item_id=?`, userID, itemID).Scan(&cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("user %d, item %d: %w", userID, itemID, ErrNoSuchHold)
	}
	if err != nil {
		return storeErr("cancel hold", err)
	}

	if _, err := tx.Exec(`DELETE FROM holds WHERE user_id=? AND item_id=?`, userID, itemID); err != nil {
		return storeErr("cancel hold", err)
	}

	if _, err := tx.Exec(`UPDATE holds SET position = position - 1 WHERE item_id=? AND position > ?`, itemID, cancelled); err != nil {
		// The hold itself is gone; a renumbering gap is repairable.
		m.store.log.Warn("hold renumbering failed, positions need repair",
			"item_id", itemID, "cancelled_position", cancelled, "error", err)
	}

	return tx.Commit()
}

// PositionOf returns the user's 1-based place in the item's queue.
func (m *HoldManager) PositionOf(userID, itemID int64) (int, error) {
	var position int
	err := m.store.db.Get(&position, `SELECT position FROM holds WHERE user_id=? AND item_id=?`, userID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("user %d, item %d: %w", userID, itemID, ErrNoSuchHold)
	}
	if err != nil {
		return 0, storeErr("hold position", err)
	}
	return position, nil
}

// CountForItem returns the length of the item's wait-list.
func (m *HoldManager) CountForItem(itemID int64) (int, error) {
	var count int
	if err := m.store.db.Get(&count, `SELECT COUNT(*) FROM holds WHERE item_id=?`, itemID); err != nil {
		return 0, storeErr("hold count", err)
	}
	return count, nil
}

// QueueForItem returns the item's wait-list entries, position ascending.
func (m *HoldManager) QueueForItem(itemID int64) ([]Hold, error) {
	var queue []Hold
	err := m.store.db.Select(&queue, `
        SELECT id, user_id, item_id, position, COALESCE(created_date,'') AS created_date
        FROM holds WHERE item_id=? ORDER BY position`, itemID)
	if err != nil {
		return nil, storeErr("item queue", err)
	}
	return queue, nil
}

// ListForUser returns the items the user is queued for, position ascending.
func (m *HoldManager) ListForUser(userID int64) ([]HeldItem, error) {
	rows, err := m.store.db.Query(`
        SELECT ci.id, ci.title, ci.author, ci.item_type,
            COALESCE(ci.dewey_decimal,''), COALESCE(ci.isbn,''), COALESCE(ci.genre,''),
            COALESCE(ci.rating,''), COALESCE(ci.issue_number,0), COALESCE(ci.publication_date,''),
            ci.publication_year, ci.condition, ci.is_available,
            h.position
        FROM catalogue_items ci
        JOIN holds h ON ci.id = h.item_id
        WHERE h.user_id = ?
        ORDER BY h.position`, userID)
	if err != nil {
		return nil, storeErr("list holds", err)
	}
	defer rows.Close()

	var held []HeldItem
	for rows.Next() {
		var hi HeldItem
		it := &hi.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Author, &it.Kind,
			&it.DeweyDecimal, &it.ISBN, &it.Genre, &it.Rating, &it.IssueNumber, &it.PublicationDate,
			&it.PublicationYear, &it.Condition, &it.Available,
			&hi.Position); err != nil {
			return nil, storeErr("list holds", err)
		}
		hi.Item = decodeItem(hi.Item)
		held = append(held, hi)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list holds", err)
	}
	return held, nil
}
