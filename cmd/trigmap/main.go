// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	_ "trigmap/internal/dialect/mssql"
	_ "trigmap/internal/dialect/mysql"
	_ "trigmap/internal/dialect/postgresql"
	_ "trigmap/internal/introspect/mssql"
	_ "trigmap/internal/introspect/mysql"
	_ "trigmap/internal/introspect/postgresql"
)

// errDrift is returned when the mapping and the database disagree. It only sets the exit
// code; the report has already been printed.
var errDrift = errors.New("mapping and database triggers are out of sync")

// errInvalid reports a wrong combination of options.
var errInvalid = errors.New("invalid options")

type globalOptions struct {
	configPath string
	noColor    bool
	yes        bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errDrift) {
			fmt.Fprintln(os.Stderr, color.RedString("[ERROR]"), err)
		}
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "trigmap",
		Short:         "Keep mapped database triggers and live database triggers in sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "trigmap.toml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&opts.yes, "yes", "y", false, "Answer yes to every prompt")

	rootCmd.AddCommand(
		validateCmd(opts),
		updateCmd(opts),
		diffCmd(opts),
		mappingUpdateCmd(opts),
		makeTriggerCmd(opts),
		storageListCmd(opts),
	)
	return rootCmd
}

// withApp loads the app for cmd and releases it afterwards.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(a *app) error) error {
	a, err := loadApp(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
