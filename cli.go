package main

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hinlibs/library"
)

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func newRootCmd(store *library.Store) *cobra.Command {
	loans := library.NewLoanManager(store)
	holds := library.NewHoldManager(store)
	accounts := library.NewAccounts(store)

	root := &cobra.Command{
		Use:           "hinlibs",
		Short:         "Catalogue and circulation for the HinLIBS library",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newSeedCmd(store),
		newListCmd(store, holds),
		newAddItemCmd(store),
		newRemoveItemCmd(store),
		newBorrowCmd(store, loans),
		newReturnCmd(store, loans),
		newHoldCmd(store, holds),
		newCancelHoldCmd(store, holds),
		newQueueCmd(store, holds),
		newHistoryCmd(store, loans),
		newAccountCmd(store, accounts),
		newUserCmd(store),
	)
	return root
}

// resolveUser maps a username argument to its account.
func resolveUser(store *library.Store, name string) (library.User, error) {
	return store.FindUser(name)
}

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return id, nil
}

func newSeedCmd(store *library.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate default users and catalogue items (no-op when the catalogue has data)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.Seed()
		},
	}
}

func newListCmd(store *library.Store, holds *library.HoldManager) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := store.LoadAllItems()
			if err != nil {
				return err
			}
			fmt.Printf("%-5s %-42s %-22s %-11s %-5s %-10s %s\n",
				"ID", "TITLE", "AUTHOR", "KIND", "YEAR", "COND", "STATUS")
			for _, it := range items {
				status := "available"
				if !it.Available {
					status = "checked out"
					if n, err := holds.CountForItem(it.ID); err == nil && n > 0 {
						status = fmt.Sprintf("checked out (%d holds)", n)
					}
				}
				fmt.Printf("%-5d %-42s %-22s %-11s %-5d %-10s %s\n",
					it.ID, it.Title, it.Author, it.Kind, it.PublicationYear, it.Condition, status)
			}
			return nil
		},
	}
}

func newAddItemCmd(store *library.Store) *cobra.Command {
	var n library.NewItem
	var kind, condition string

	cmd := &cobra.Command{
		Use:   "add-item",
		Short: "Add a catalogue item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n.Kind = library.Kind(kind)
			n.Condition = library.Condition(condition)
			id, err := store.InsertItem(n)
			if err != nil {
				return err
			}
			fmt.Printf("Added item %d: %s by %s\n", id, n.Title, n.Author)
			return nil
		},
	}

	cmd.Flags().StringVar(&n.Title, "title", "", "item title")
	cmd.Flags().StringVar(&n.Author, "author", "", "author or creator")
	cmd.Flags().StringVar(&kind, "kind", "", "fiction|nonfiction|magazine|movie|videogame")
	cmd.Flags().IntVar(&n.PublicationYear, "year", 0, "publication year")
	cmd.Flags().StringVar(&condition, "condition", string(library.ConditionGood), "Excellent|Good|Fair|Poor")
	cmd.Flags().StringVar(&n.ISBN, "isbn", "", "ISBN (books)")
	cmd.Flags().StringVar(&n.DeweyDecimal, "dewey", "", "Dewey decimal (nonfiction)")
	cmd.Flags().IntVar(&n.IssueNumber, "issue", 0, "issue number (magazines)")
	cmd.Flags().StringVar(&n.PublicationDate, "pubdate", "", "publication date (magazines)")
	cmd.Flags().StringVar(&n.Genre, "genre", "", "genre (movies, video games)")
	cmd.Flags().StringVar(&n.Rating, "rating", "", "rating (movies, video games)")
	return cmd
}

func newRemoveItemCmd(store *library.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-item <item-id>",
		Short: "Remove a catalogue item (refused while borrowed or held)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteItem(id); err != nil {
				return err
			}
			fmt.Printf("Removed item %d\n", id)
			return nil
		},
	}
}

func newBorrowCmd(store *library.Store, loans *library.LoanManager) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <username> <item-id>",
		Short: "Check an item out to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := resolveUser(store, args[0])
			if err != nil {
				return err
			}
			itemID, err := parseItemID(args[1])
			if err != nil {
				return err
			}
			if err := loans.Borrow(user.ID, itemID); err != nil {
				return err
			}
			fmt.Printf("Item %d checked out to %s\n", itemID, user.Name)
			return nil
		},
	}
}

func newReturnCmd(store *library.Store, loans *library.LoanManager) *cobra.Command {
	return &cobra.Command{
		Use:   "return <username> <item-id>",
		Short: "Return a user's borrowed item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := resolveUser(store, args[0])
			if err != nil {
				return err
			}
			itemID, err := parseItemID(args[1])
			if err != nil {
				return err
			}
			if err := loans.Return(user.ID, itemID); err != nil {
				return err
			}
			fmt.Printf("Item %d returned by %s\n", itemID, user.Name)
			return nil
		},
	}
}

func newHoldCmd(store *library.Store, holds *library.HoldManager) *cobra.Command {
	return &cobra.Command{
		Use:   "hold <username> <item-id>",
		Short: "Place a hold on a checked-out item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := resolveUser(store, args[0])
			if err != nil {
				return err
			}
			itemID, err := parseItemID(args[1])
			if err != nil {
				return err
			}
			pos, err := holds.PlaceHold(user.ID, itemID)
			if err != nil {
				return err
			}
			fmt.Printf("%s is position %d in the queue for item %d\n", user.Name, pos, itemID)
			return nil
		},
	}
}

func newCancelHoldCmd(store *library.Store, holds *library.HoldManager) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-hold <username> <item-id>",
		Short: "Cancel a user's hold",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := resolveUser(store, args[0])
			if err != nil {
				return err
			}
			itemID, err := parseItemID(args[1])
			if err != nil {
				return err
			}
			if err := holds.CancelHold(user.ID, itemID); err != nil {
				return err
			}
			fmt.Printf("Hold cancelled for %s on item %d\n", user.Name, itemID)
			return nil
		},
	}
}

func newQueueCmd(store *library.Store, holds *library.HoldManager) *cobra.Command {
	return &cobra.Command{
		Use:   "queue <item-id>",
		Short: "Show an item's hold queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			queue, err := holds.QueueForItem(itemID)
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				fmt.Printf("Item %d has no holds\n", itemID)
				return nil
			}
			fmt.Printf("Item %d has %d hold(s):\n", itemID, len(queue))
			for _, h := range queue {
				u, err := store.UserByID(h.UserID)
				if err != nil {
					return err
				}
				fmt.Printf("  #%d %s (since %s)\n", h.Position, u.Name, h.CreatedDate)
			}
			return nil
		},
	}
}

func newHistoryCmd(store *library.Store, loans *library.LoanManager) *cobra.Command {
	return &cobra.Command{
		Use:   "history <username>",
		Short: "Show a user's full loan ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := resolveUser(store, args[0])
			if err != nil {
				return err
			}
			ledger, err := loans.History(user.ID)
			if err != nil {
				return err
			}
			for _, l := range ledger {
				status := "returned " + l.ReturnDate
				if l.Open() {
					status = "open, due " + l.DueDate
				}
				fmt.Printf("  item %-5d out %s - %s\n", l.ItemID, l.CheckoutDate, status)
			}
			return nil
		},
	}
}

func newAccountCmd(store *library.Store, accounts *library.Accounts) *cobra.Command {
	return &cobra.Command{
		Use:   "account <username>",
		Short: "Show a user's open loans and active holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := resolveUser(store, args[0])
			if err != nil {
				return err
			}
			view, err := accounts.Refresh(user.ID)
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s) - borrowed %d/%d, %d active hold(s)\n",
				view.User.Name, view.User.Role, len(view.Loans), library.MaxOpenLoans, len(view.Holds))
			for _, l := range view.Loans {
				fmt.Printf("  loan: [%d] %s by %s - due %s\n", l.Item.ID, l.Item.Title, l.Item.Author, l.DueDate)
			}
			for _, h := range view.Holds {
				fmt.Printf("  hold: [%d] %s by %s - position #%d\n", h.Item.ID, h.Item.Title, h.Item.Author, h.Position)
			}
			return nil
		},
	}
}

func newUserCmd(store *library.Store) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	add := &cobra.Command{
		Use:   "add <username> <patron|librarian|admin>",
		Short: "Provision an account (prompts for an optional password)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("Password (empty for none): ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			id, err := store.CreateUser(args[0], library.Role(args[1]), password)
			if err != nil {
				return err
			}
			fmt.Printf("Created user %d: %s\n", id, args[0])
			return nil
		},
	}

	passwd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Reset an account's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := store.FindUser(args[0])
			if err != nil {
				return err
			}
			password, err := readPassword("New password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if err := store.SetPassword(u.ID, password); err != nil {
				return err
			}
			fmt.Printf("Password updated for %s\n", u.Name)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := store.AllUsers()
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%-5d %-15s %s\n", u.ID, u.Name, u.Role)
			}
			return nil
		},
	}

	user.AddCommand(add, passwd, list)
	return user
}
