package library

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LoanManager enforces the borrow and return business rules. The availability
// flag and the loan ledger always move together, inside one transaction; the
// flag is never written on its own.
type LoanManager struct {
	store *Store
}

// NewLoanManager wires a LoanManager onto an explicitly passed store handle.
func NewLoanManager(store *Store) *LoanManager {
	return &LoanManager{store: store}
}

// Borrow checks the item out to the user. Preconditions checked inside the
// transaction so two concurrent borrows cannot both pass: the item exists and
// is available, the user exists, and the user has fewer than MaxOpenLoans
// open loans. The due date is the checkout date plus LoanPeriod.
func (m *LoanManager) Borrow(userID, itemID int64) error {
	tx, err := m.store.db.Begin()
	if err != nil {
		return storeErr("borrow", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id=?)`, userID).Scan(&exists); err != nil {
		return storeErr("borrow", err)
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	var avail bool
	err = tx.QueryRow(`SELECT is_available FROM catalogue_items WHERE id=?`, itemID).Scan(&avail)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return storeErr("borrow", err)
	}
	if !avail {
		return fmt.Errorf("item %d: %w", itemID, ErrItemUnavailable)
	}

	var open int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM loans WHERE user_id=? AND return_date IS NULL`, userID).Scan(&open); err != nil {
		return storeErr("borrow", err)
	}
	if open >= MaxOpenLoans {
		return fmt.Errorf("user %d has %d open loans: %w", userID, open, ErrBorrowLimitExceeded)
	}

	checkout := time.Now()
	due := checkout.Add(LoanPeriod)

	if _, err := tx.Exec(`UPDATE catalogue_items SET is_available=0 WHERE id=?`, itemID); err != nil {
		return storeErr("borrow", err)
	}
	if _, err := tx.Exec(`INSERT INTO loans (user_id, item_id, checkout_date, due_date) VALUES (?,?,?,?)`,
		userID, itemID, checkout.Format(DateLayout), due.Format(DateLayout)); err != nil {
		return storeErr("borrow", err)
	}
	return tx.Commit()
}

// Return closes the user's open loan on the item and makes it available
// again. Holds are untouched; the head of the queue must borrow explicitly.
func (m *LoanManager) Return(userID, itemID int64) error {
	tx, err := m.store.db.Begin()
	if err != nil {
		return storeErr("return", err)
	}
	defer tx.Rollback()

	var loanID int64
	err = tx.QueryRow(`SELECT id FROM loans WHERE user_id=? AND item_id=? AND return_date IS NULL`, userID, itemID).Scan(&loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("user %d, item %d: %w", userID, itemID, ErrNoOpenLoan)
	}
	if err != nil {
		return storeErr("return", err)
	}

	if _, err := tx.Exec(`UPDATE loans SET return_date=? WHERE id=?`, time.Now().Format(DateLayout), loanID); err != nil {
		return storeErr("return", err)
	}
	if _, err := tx.Exec(`UPDATE catalogue_items SET is_available=1 WHERE id=?`, itemID); err != nil {
		return storeErr("return", err)
	}
	return tx.Commit()
}

// History returns every loan the user has taken, open or closed, oldest first.
func (m *LoanManager) History(userID int64) ([]Loan, error) {
	var ledger []Loan
	err := m.store.db.Select(&ledger, `
        SELECT id, user_id, item_id, checkout_date, due_date, COALESCE(return_date,'') AS return_date
        FROM loans WHERE user_id=? ORDER BY checkout_date, id`, userID)
	if err != nil {
		return nil, storeErr("loan history", err)
	}
	return ledger, nil
}

// ListOpenLoans returns the user's open loans with their items, oldest
// checkout first.
func (m *LoanManager) ListOpenLoans(userID int64) ([]OpenLoan, error) {
	rows, err := m.store.db.Query(`
        SELECT ci.id, ci.title, ci.author, ci.item_type,
            COALESCE(ci.dewey_decimal,''), COALESCE(ci.isbn,''), COALESCE(ci.genre,''),
            COALESCE(ci.rating,''), COALESCE(ci.issue_number,0), COALESCE(ci.publication_date,''),
            ci.publication_year, ci.condition, ci.is_available,
            l.checkout_date, l.due_date
        FROM catalogue_items ci
        JOIN loans l ON ci.id = l.item_id
        WHERE l.user_id = ? AND l.return_date IS NULL
        ORDER BY l.checkout_date, l.id`, userID)
	if err != nil {
		return nil, storeErr("list open loans", err)
	}
	defer rows.Close()

	var loans []OpenLoan
	for rows.Next() {
		var ol OpenLoan
		it := &ol.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Author, &it.Kind,
			&it.DeweyDecimal, &it.ISBN, &it.Genre, &it.Rating, &it.IssueNumber, &it.PublicationDate,
			&it.PublicationYear, &it.Condition, &it.Available,
			&ol.CheckoutDate, &ol.DueDate); err != nil {
			return nil, storeErr("list open loans", err)
		}
		ol.Item = decodeItem(ol.Item)
		loans = append(loans, ol)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list open loans", err)
	}
	return loans, nil
}
