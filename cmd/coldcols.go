package cmd

import (
	"fmt"
	"maps"
	"slices"

	"coldstore/pkg/anticache"
	"coldstore/pkg/catalog"
	"coldstore/pkg/catalog/catalogio"
	"coldstore/pkg/utils/functools"

	"github.com/spf13/cobra"
)

var coldColumnsCmd = &cobra.Command{
	Use:   "cold-columns",
	Short: "Choose the cold columns of every evictable table from procedure column usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogPath, _ := cmd.Flags().GetString("catalog")
		refsPath, _ := cmd.Flags().GetString("refs")

		cat, err := catalogio.LoadFile(catalogPath)
		if err != nil {
			return err
		}
		procs, err := catalogio.LoadProceduresFile(refsPath)
		if err != nil {
			return err
		}

		counts := anticache.CountReferences(procs)
		changed := anticache.AssignColdColumns(cat, counts, cfg.AntiCache.ColdColumnLimit)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("cold columns for %s (%d procedures)", cat.Name, len(procs))))

		rows := make([][]string, 0, len(changed))
		for _, name := range changed {
			t := cat.Tables[name]
			ordered := make([]string, len(t.EvictColumns))
			for _, ref := range t.EvictColumns {
				ordered[ref.Index] = fmt.Sprintf("%s (%d)", ref.Name, counts[name][ref.Name])
			}
			rows = append(rows, []string{name, joinOrDash(ordered)})
		}
		fmt.Fprintln(out, renderGrid([]string{"TABLE", "COLD COLUMNS (REFS)"}, rows))

		skipped := len(functools.Filter(slices.Collect(maps.Values(cat.Tables)), func(t *catalog.Table) bool {
			return !t.Evictable
		}))
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d evictable, %d not evictable", len(changed), skipped)))
		return nil
	},
}

func init() {
	coldColumnsCmd.Flags().String("catalog", "", "catalog file (yaml, json or toml)")
	coldColumnsCmd.Flags().String("refs", "", "procedure column usage file")
	coldColumnsCmd.Flags().Int("limit", anticache.DefaultColdColumnLimit, "maximum cold columns per table")
	_ = coldColumnsCmd.MarkFlagRequired("catalog")
	_ = coldColumnsCmd.MarkFlagRequired("refs")

	RootCmd.AddCommand(coldColumnsCmd)
}
