package library

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// NewItem holds the fields a caller must supply when adding a catalogue item.
// Shared fields are always required; which payload fields are required
// depends on Kind (checked in Validate, since the dependency is conditional).
type NewItem struct {
	Title           string    `validate:"required"`
	Author          string    `validate:"required"`
	Kind            Kind      `validate:"required,oneof=fiction nonfiction magazine movie videogame"`
	PublicationYear int       `validate:"required,min=1,max=2100"`
	Condition       Condition `validate:"required,oneof=Excellent Good Fair Poor"`

	ISBN            string
	DeweyDecimal    string
	IssueNumber     int
	PublicationDate string
	Genre           string
	Rating          string
}

// Validate checks the shared field tags, then the kind-specific payload.
func (n NewItem) Validate() error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("invalid item: %w", err)
	}

	switch n.Kind {
	case KindFiction:
		if n.ISBN == "" {
			return fmt.Errorf("invalid item: fiction requires an isbn")
		}
	case KindNonFiction:
		if n.ISBN == "" || n.DeweyDecimal == "" {
			return fmt.Errorf("invalid item: nonfiction requires an isbn and a dewey decimal")
		}
	case KindMagazine:
		if n.IssueNumber <= 0 || n.PublicationDate == "" {
			return fmt.Errorf("invalid item: magazine requires an issue number and a publication date")
		}
	case KindMovie, KindVideoGame:
		if n.Genre == "" || n.Rating == "" {
			return fmt.Errorf("invalid item: %s requires a genre and a rating", n.Kind)
		}
	}
	return nil
}
