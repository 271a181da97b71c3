package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mastower/internal/cli"
	mserrors "github.com/matzehuels/mastower/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	code := mserrors.ExitSuccess
	func() {
		defer func() {
			if r := recover(); r != nil {
				f, ok := mserrors.AsFatal(r)
				if !ok {
					panic(r)
				}
				fmt.Fprintln(os.Stderr, f)
				code = f.Exit
			}
		}()
		if err := run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				cancel()
				os.Exit(130) // Standard shell convention for SIGINT
			}
			fmt.Fprintln(os.Stderr, err)
			code = mserrors.ExitCodeFor(err)
		}
	}()
	cancel()
	os.Exit(int(code))
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	originalPreRun := root.PersistentPreRun
	root.PersistentPreRun = nil
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := cli.LogInfo
		if verbose {
			level = cli.LogDebug
		}
		c.SetLogLevel(level)

		if originalPreRun != nil {
			originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
