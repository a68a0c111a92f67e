// cmd/librarian/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"librarymanager/internal/app"
	"librarymanager/internal/catalog"
	"librarymanager/internal/config"
	"librarymanager/internal/observability"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

type cli struct {
	configPath string
	cfg        *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "librarian",
		Short:         "Browse and maintain the library catalog",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			observability.InitLogger(observability.LogConfig{Env: cfg.App.Env, Level: cfg.Log.Level})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to librarian.yaml")

	root.AddCommand(
		c.browseCommand(),
		c.listCommand(),
		c.addCommand(),
		c.deleteCommand(),
		c.historyCommand(),
	)
	return root
}

// open builds the app with notifications printed to the terminal.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	return app.New(ctx, c.cfg, "librarian", catalog.NotifierFunc(printNotification))
}

func printNotification(_ context.Context, n catalog.Notification) {
	if n.Level == catalog.LevelError {
		fmt.Fprintln(os.Stderr, red(n.Title+": ")+n.Message)
		return
	}
	fmt.Println(green(n.Title+": ") + n.Message)
}
