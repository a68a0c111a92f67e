package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"librarymanager/internal/app"
	"librarymanager/internal/catalog"
	"librarymanager/internal/observability"
	"librarymanager/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func (c *cli) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive catalog browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Log lines would tear the full-screen view.
			observability.InitLogger(observability.LogConfig{Env: c.cfg.App.Env, Level: c.cfg.Log.Level, Output: io.Discard})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			bridge := tui.NewBridge()
			a, err := app.New(ctx, c.cfg, "librarian", bridge)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			view := catalog.NewView()
			coord := a.NewCoordinator(catalog.WithView(view), catalog.WithConfirmer(bridge))
			model := tui.New(ctx, a.Catalog, coord, view, bridge)

			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}

func (c *cli) listCommand() *cobra.Command {
	var search, category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the catalog, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			if err := a.Catalog.Refresh(ctx); err != nil {
				return err
			}
			if category == "" {
				category = catalog.AllCategories
			}

			books := a.Catalog.Visible(search, category)
			fmt.Println(bold(catalog.CountLabel(len(books))))
			if len(books) == 0 {
				fmt.Println(gray(catalog.EmptyStateMessage(search, category)))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCATEGORY\tAVAILABILITY")
			for _, b := range books {
				availability := green(b.AvailabilityLabel())
				if !b.InStock() {
					availability = red(b.AvailabilityLabel())
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", gray(b.ID), b.Title, b.Author, b.Category, availability)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "match title, author or ISBN")
	cmd.Flags().StringVarP(&category, "category", "c", "", "exact category name")
	return cmd
}

func (c *cli) addCommand() *cobra.Command {
	in := catalog.NewBookInput(time.Now())

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Title == "" {
				title, err := ask("Title", true)
				if err != nil {
					return err
				}
				in.Title = title
			}
			if in.Author == "" {
				author, err := ask("Author", true)
				if err != nil {
					return err
				}
				in.Author = author
			}

			in = in.Normalize()
			if err := in.Validate(); err != nil {
				return fmt.Errorf("invalid book: %w", err)
			}

			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			book, err := a.NewCoordinator().Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Println(gray("id: " + book.ID.String()))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "book title")
	f.StringVar(&in.Author, "author", "", "author name")
	f.StringVar(&in.ISBN, "isbn", "", "ISBN")
	f.StringVar(&in.Publisher, "publisher", "", "publisher")
	f.IntVar(&in.PublicationYear, "year", in.PublicationYear, "publication year")
	f.StringVar(&in.Category, "category", "", "category, e.g. "+strings.Join(catalog.SuggestedCategories[:3], ", "))
	f.StringVar(&in.Description, "description", "", "short description")
	f.IntVar(&in.Quantity, "quantity", in.Quantity, "copies owned")
	f.IntVar(&in.Available, "available", in.Available, "copies available")
	return cmd
}

func (c *cli) deleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid book ID %q", args[0])
			}

			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			confirmer := catalog.ContextConfirmer
			if yes {
				ctx = catalog.WithConfirmation(ctx, true)
			} else {
				confirmer = catalog.ConfirmFunc(confirm)
			}

			deleted, err := a.NewCoordinator(catalog.WithConfirmer(confirmer)).Delete(ctx, id)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Println(yellow("Nothing deleted."))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the change journal of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid book ID %q", args[0])
			}

			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			h := a.History()
			if h == nil {
				return catalog.ErrNoHistory
			}
			events, err := h.History(ctx, id)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println(gray("No changes recorded for " + id.String()))
				return nil
			}
			for _, e := range events {
				fmt.Printf("%s  %s  %s\n", gray(e.CreatedAt.Local().Format(time.DateTime)), cyan(e.Type), string(e.Data))
			}
			return nil
		},
	}
}

func ask(label string, required bool) (string, error) {
	p := promptui.Prompt{Label: label}
	if required {
		p.Validate = func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New(strings.ToLower(label) + " is required")
			}
			return nil
		}
	}
	return p.Run()
}

// confirm asks on the terminal. Anything but an explicit yes declines.
func confirm(_ context.Context, prompt string) bool {
	p := promptui.Prompt{Label: prompt, IsConfirm: true}
	_, err := p.Run()
	return err == nil
}
