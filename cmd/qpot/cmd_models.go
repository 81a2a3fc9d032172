package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/qpot/drift"
	"github.com/spf13/cobra"
)

func runModels(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	for _, name := range drift.Names() {
		m, err := drift.Lookup(name)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(m.Defaults))
		for k := range m.Defaults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		params := make([]string, len(keys))
		for i, k := range keys {
			params[i] = fmt.Sprintf("%s=%g", k, m.Defaults[k])
		}

		fmt.Fprintf(out, "%s\n  %s\n  params: %s\n", m.Name, m.Description, strings.Join(params, " "))
		if len(m.Equilibria) > 0 {
			fmt.Fprintf(out, "  equilibria: %v\n", m.Equilibria)
		}
		if len(m.Saddles) > 0 {
			fmt.Fprintf(out, "  saddles: %v\n", m.Saddles)
		}
	}

	return nil
}
