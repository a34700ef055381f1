package library

import "time"

// Role classifies a user's privileges in the system.
type Role string

const (
	RolePatron    Role = "patron"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// User represents a registered account. Name is unique across the system.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"username" json:"name"`
	Role         Role   `db:"role" json:"role"`
	PasswordHash string `db:"password" json:"-"` // Don't serialize password hash
	CreatedDate  string `db:"created_date" json:"created_date"`
}

// Kind discriminates the catalogue item variants. The set is closed; the
// store's encode/decode switches on it instead of virtual dispatch.
type Kind string

const (
	KindFiction    Kind = "fiction"
	KindNonFiction Kind = "nonfiction"
	KindMagazine   Kind = "magazine"
	KindMovie      Kind = "movie"
	KindVideoGame  Kind = "videogame"
)

// Kinds lists every valid discriminant, in catalogue display order.
func Kinds() []Kind {
	return []Kind{KindFiction, KindNonFiction, KindMagazine, KindMovie, KindVideoGame}
}

// Condition grades the physical state of an item.
type Condition string

const (
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
	ConditionPoor      Condition = "Poor"
)

// Item is a catalogue entry as a tagged variant: the shared fields are always
// set, the payload fields are meaningful only for the kinds noted on each.
// Available is derived from loan state and is never written independently of
// it. An Item loaded from the store always carries its row ID.
type Item struct {
	ID              int64     `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Author          string    `db:"author" json:"author"`
	Kind            Kind      `db:"item_type" json:"kind"`
	PublicationYear int       `db:"publication_year" json:"publication_year"`
	Condition       Condition `db:"condition" json:"condition"`
	Available       bool      `db:"is_available" json:"available"`

	ISBN            string `db:"isbn" json:"isbn,omitempty"`                // fiction, nonfiction
	DeweyDecimal    string `db:"dewey_decimal" json:"dewey,omitempty"`      // nonfiction
	IssueNumber     int    `db:"issue_number" json:"issue,omitempty"`       // magazine
	PublicationDate string `db:"publication_date" json:"pubdate,omitempty"` // magazine
	Genre           string `db:"genre" json:"genre,omitempty"`              // movie, videogame
	Rating          string `db:"rating" json:"rating,omitempty"`            // movie, videogame
}

// Loan is one circulation ledger entry. A loan is open while ReturnDate is
// empty; at most one open loan references any item.
type Loan struct {
	ID           int64  `db:"id" json:"id"`
	UserID       int64  `db:"user_id" json:"user_id"`
	ItemID       int64  `db:"item_id" json:"item_id"`
	CheckoutDate string `db:"checkout_date" json:"checkout_date"`
	DueDate      string `db:"due_date" json:"due_date"`
	ReturnDate   string `db:"return_date" json:"return_date,omitempty"`
}

// Open reports whether the loan has not been returned yet.
func (l Loan) Open() bool { return l.ReturnDate == "" }

// Hold is one wait-list entry. Positions for an item are contiguous 1..N.
type Hold struct {
	ID          int64  `db:"id" json:"id"`
	UserID      int64  `db:"user_id" json:"user_id"`
	ItemID      int64  `db:"item_id" json:"item_id"`
	Position    int    `db:"position" json:"position"`
	CreatedDate string `db:"created_date" json:"created_date"`
}

// OpenLoan pairs an open loan with the item it references, for listings.
type OpenLoan struct {
	Item         Item
	CheckoutDate string
	DueDate      string
}

// HeldItem pairs a hold with its item, for listings.
type HeldItem struct {
	Item     Item
	Position int
}

// DateLayout is the storage format for checkout, due and return dates.
const DateLayout = "2006-01-02"

// LoanPeriod is how long a loan runs before it is due.
const LoanPeriod = 14 * 24 * time.Hour

// MaxOpenLoans is the per-user cap on concurrent open loans.
const MaxOpenLoans = 3
