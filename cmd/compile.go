package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"coldstore/pkg/catalog/catalogio"
	"coldstore/pkg/database"
	"coldstore/pkg/tables"

	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile every table of a catalog and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogPath, _ := cmd.Flags().GetString("catalog")

		cat, err := catalogio.LoadFile(catalogPath)
		if err != nil {
			return err
		}

		db, err := database.NewDatabase(cat.Name, cfg, tables.NewMemoryFactory())
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		applyErr := db.ApplyCatalog(ctx, cat)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("catalog %s", cat.Name)))
		for _, name := range db.GetTables() {
			pt, err := db.Table(0, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderTable(pt))
		}

		info := db.GetStatistics()
		fmt.Fprintln(out, renderSummary(info))

		return applyErr
	},
}

func init() {
	compileCmd.Flags().String("catalog", "", "catalog file (yaml, json or toml)")
	compileCmd.Flags().Bool("anticache", false, "enable the anti-cache")
	compileCmd.Flags().String("layout", "tuple", "eviction directory layout (tuple or vertical)")
	compileCmd.Flags().Int("partitions", 1, "number of partitions to compile for")
	_ = compileCmd.MarkFlagRequired("catalog")

	RootCmd.AddCommand(compileCmd)
}
