package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/speakeval/pkg/views"
	"github.com/JaimeStill/speakeval/web/app"
)

func routesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Inspect the browser view table",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every view route",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeRoutes(cmd, app.Table)
		},
	}

	var asJSON bool
	resolve := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a browser path to its view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Table.Resolve(args[0])
			if err != nil {
				return err
			}
			return writeResolution(cmd, res, asJSON)
		},
	}
	resolve.Flags().BoolVar(&asJSON, "json", false, "print the resolution as JSON")

	cmd.AddCommand(list, resolve)
	return cmd
}

func writeRoutes(cmd *cobra.Command, table *views.Table) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tNAME\tTARGET\tPROPS")

	for _, r := range table.Routes() {
		target := r.View
		if r.Redirect != nil {
			target = "-> " + describeTarget(r.Redirect)
		}
		name := r.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", r.Path, name, target, r.Props)
	}

	return tw.Flush()
}

func describeTarget(t *views.Target) string {
	if t.Name != "" {
		return t.Name
	}
	return t.Path
}

func writeResolution(cmd *cobra.Command, res *views.Resolution, asJSON bool) error {
	out := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "view\t%s\n", res.View)
	fmt.Fprintf(tw, "name\t%s\n", res.Name)
	fmt.Fprintf(tw, "path\t%s\n", res.Location())
	fmt.Fprintf(tw, "pattern\t%s\n", res.Pattern)
	if res.Redirected() {
		fmt.Fprintf(tw, "redirected\t%s (%d hops)\n", res.RedirectedFrom, res.Redirects)
	}
	if len(res.Props) > 0 {
		fmt.Fprintf(tw, "props\t%s\n", formatMap(res.Props))
	}
	return tw.Flush()
}

func formatMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + m[k]
	}
	return strings.Join(pairs, " ")
}
