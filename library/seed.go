package library

import (
	"errors"
	"fmt"
)

// defaultUsers are the accounts provisioned on first run. None carry a
// password until one is set explicitly.
var defaultUsers = []struct {
	Name string
	Role Role
}{
	{"alice_p", RolePatron},
	{"bob_p", RolePatron},
	{"charlie_p", RolePatron},
	{"diana_p", RolePatron},
	{"eve_p", RolePatron},
	{"libby", RoleLibrarian},
	{"admin", RoleAdmin},
}

// defaultCatalogue is the stock inventory inserted into an empty catalogue.
var defaultCatalogue = []NewItem{
	// Fiction
	{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Kind: KindFiction, PublicationYear: 1925, Condition: ConditionGood, ISBN: "978-0-7432-7356-5"},
	{Title: "To Kill a Mockingbird", Author: "Harper Lee", Kind: KindFiction, PublicationYear: 1960, Condition: ConditionExcellent, ISBN: "978-0-06-112008-4"},
	{Title: "1984", Author: "George Orwell", Kind: KindFiction, PublicationYear: 1949, Condition: ConditionGood, ISBN: "978-0-452-28423-4"},
	{Title: "Pride and Prejudice", Author: "Jane Austen", Kind: KindFiction, PublicationYear: 1813, Condition: ConditionFair, ISBN: "978-0-14-143951-8"},
	{Title: "The Hobbit", Author: "J.R.R. Tolkien", Kind: KindFiction, PublicationYear: 1937, Condition: ConditionExcellent, ISBN: "978-0-547-92822-7"},

	// Non-fiction
	{Title: "Sapiens", Author: "Yuval Noah Harari", Kind: KindNonFiction, PublicationYear: 2011, Condition: ConditionExcellent, ISBN: "978-0-06-231609-7", DeweyDecimal: "909.04"},
	{Title: "Cosmos", Author: "Carl Sagan", Kind: KindNonFiction, PublicationYear: 1980, Condition: ConditionGood, ISBN: "978-0-375-50832-3", DeweyDecimal: "520.92"},
	{Title: "A Brief History of Time", Author: "Stephen Hawking", Kind: KindNonFiction, PublicationYear: 1988, Condition: ConditionExcellent, ISBN: "978-0-553-05340-1", DeweyDecimal: "523.01"},
	{Title: "The Selfish Gene", Author: "Richard Dawkins", Kind: KindNonFiction, PublicationYear: 1976, Condition: ConditionGood, ISBN: "978-0-19-286092-7", DeweyDecimal: "576.82"},
	{Title: "Silent Spring", Author: "Rachel Carson", Kind: KindNonFiction, PublicationYear: 1962, Condition: ConditionFair, ISBN: "978-0-618-24906-0", DeweyDecimal: "632.95"},

	// Magazines
	{Title: "National Geographic", Author: "Various", Kind: KindMagazine, PublicationYear: 2024, Condition: ConditionExcellent, IssueNumber: 255, PublicationDate: "January 2024"},
	{Title: "Scientific American", Author: "Various", Kind: KindMagazine, PublicationYear: 2024, Condition: ConditionGood, IssueNumber: 330, PublicationDate: "March 2024"},
	{Title: "The Economist", Author: "Various", Kind: KindMagazine, PublicationYear: 2024, Condition: ConditionExcellent, IssueNumber: 452, PublicationDate: "February 2024"},

	// Movies
	{Title: "Inception", Author: "Christopher Nolan", Kind: KindMovie, PublicationYear: 2010, Condition: ConditionExcellent, Genre: "Sci-Fi/Thriller", Rating: "PG-13"},
	{Title: "The Shawshank Redemption", Author: "Frank Darabont", Kind: KindMovie, PublicationYear: 1994, Condition: ConditionGood, Genre: "Drama", Rating: "R"},
	{Title: "Spirited Away", Author: "Hayao Miyazaki", Kind: KindMovie, PublicationYear: 2001, Condition: ConditionExcellent, Genre: "Animation/Fantasy", Rating: "PG"},

	// Video games
	{Title: "The Legend of Zelda: Breath of the Wild", Author: "Nintendo", Kind: KindVideoGame, PublicationYear: 2017, Condition: ConditionExcellent, Genre: "Action-Adventure", Rating: "E10+"},
	{Title: "Portal 2", Author: "Valve", Kind: KindVideoGame, PublicationYear: 2011, Condition: ConditionGood, Genre: "Puzzle-Platform", Rating: "E10+"},
	{Title: "Minecraft", Author: "Mojang", Kind: KindVideoGame, PublicationYear: 2011, Condition: ConditionExcellent, Genre: "Sandbox/Survival", Rating: "E10+"},
	{Title: "Celeste", Author: "Maddy Makes Games", Kind: KindVideoGame, PublicationYear: 2018, Condition: ConditionGood, Genre: "Platformer", Rating: "E10+"},
}

// Seed populates the default users and catalogue, but only when the
// catalogue is still empty. Running it again is a no-op, so callers may
// invoke it unconditionally at startup.
func (s *Store) Seed() error {
	var count int
	if err := s.db.Get(&count, `SELECT COUNT(*) FROM catalogue_items`); err != nil {
		return storeErr("seed", err)
	}
	if count > 0 {
		s.log.Info("catalogue already populated, skipping seed", "items", count)
		return nil
	}

	for _, u := range defaultUsers {
		if _, err := s.CreateUser(u.Name, u.Role, ""); err != nil {
			// Default users may survive a wiped catalogue.
			if errors.Is(err, ErrConstraintViolation) {
				continue
			}
			return fmt.Errorf("seed user %q: %w", u.Name, err)
		}
	}

	for _, n := range defaultCatalogue {
		if _, err := s.InsertItem(n); err != nil {
			return fmt.Errorf("seed item %q: %w", n.Title, err)
		}
	}

	s.log.Info("seeded default data", "users", len(defaultUsers), "items", len(defaultCatalogue))
	return nil
}
