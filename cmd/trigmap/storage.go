package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func storageListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "storage:list",
		Short: "List the configured storages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				return a.listStorages()
			})
		},
	}
}

func (a *app) listStorages() error {
	targets := a.resolver.Targets()
	if len(targets) == 0 {
		a.warnf("No storage configured.")
		return nil
	}
	fmt.Fprintf(a.out, "%-16s %-10s %-24s %s\n", "NAME", "TYPE", "NAMESPACE", "DIRECTORY")
	for _, t := range targets {
		dir, err := a.resolver.ResolveDirectory(t.Name)
		if err != nil {
			return err
		}
		ns := t.Namespace
		if ns == "" {
			ns = "-"
		}
		fmt.Fprintf(a.out, "%-16s %-10s %-24s %s\n", t.Name, t.Kind, ns, dir)
	}
	return nil
}
