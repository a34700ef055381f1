package library

import "errors"

// Every mutating engine call returns nil or exactly one of these, wrapped
// with context via %w so callers can match with errors.Is and still render
// the full message.
var (
	// ErrNotFound is returned when a referenced user or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConstraintViolation is returned when an insert collides with the
	// (title, author, publication_year) uniqueness constraint.
	ErrConstraintViolation = errors.New("catalogue constraint violation")

	// ErrItemUnavailable is returned by Borrow when the item is checked out.
	ErrItemUnavailable = errors.New("item is not available")

	// ErrItemAvailable is returned by PlaceHold when the item is on the
	// shelf; holds are only taken on checked-out items.
	ErrItemAvailable = errors.New("item is available; borrow it instead of placing a hold")

	// ErrBorrowLimitExceeded is returned by Borrow when the user already has
	// the maximum number of open loans.
	ErrBorrowLimitExceeded = errors.New("borrow limit reached")

	// ErrDuplicateHold is returned by PlaceHold when the user already holds
	// a queue position for the item.
	ErrDuplicateHold = errors.New("hold already placed for this item")

	// ErrNoOpenLoan is returned by Return when no open loan matches the
	// user/item pair.
	ErrNoOpenLoan = errors.New("no open loan for this user and item")

	// ErrNoSuchHold is returned by CancelHold and PositionOf when the user
	// has no hold on the item.
	ErrNoSuchHold = errors.New("no hold for this user and item")

	// ErrDeleteProtected is returned by DeleteItem while an open loan or any
	// hold still references the item.
	ErrDeleteProtected = errors.New("item has an open loan or active holds")

	// ErrStorage wraps connection and driver failures from the store.
	ErrStorage = errors.New("storage failure")
)
