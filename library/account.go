package library

// AccountView is a per-user snapshot of open loans and active holds. It is
// assembled wholesale from the store on every call and is never authoritative;
// callers must not patch one incrementally; throw it away and refresh.
type AccountView struct {
	User  User
	Loans []OpenLoan
	Holds []HeldItem
}

// Accounts builds consistent per-user views purely from the store.
type Accounts struct {
	store *Store
	loans *LoanManager
	holds *HoldManager
}

// NewAccounts wires an aggregator onto an explicitly passed store handle.
func NewAccounts(store *Store) *Accounts {
	return &Accounts{
		store: store,
		loans: NewLoanManager(store),
		holds: NewHoldManager(store),
	}
}

// Refresh returns a fresh snapshot of the user's account. Nothing is cached
// between calls.
func (a *Accounts) Refresh(userID int64) (*AccountView, error) {
	user, err := a.store.UserByID(userID)
	if err != nil {
		return nil, err
	}

	loans, err := a.loans.ListOpenLoans(userID)
	if err != nil {
		return nil, err
	}

	holds, err := a.holds.ListForUser(userID)
	if err != nil {
		return nil, err
	}

	return &AccountView{User: user, Loans: loans, Holds: holds}, nil
}
