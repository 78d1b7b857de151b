package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rickgao/active-strike/internal/model"
	"github.com/rickgao/active-strike/internal/store"
	"github.com/rickgao/active-strike/internal/writer"
)

var (
	showDate string
	showAll  bool
)

var showCmd = &cobra.Command{
	Use:   "show [--date YYYY-MM-DD | --all]",
	Short: "Print stored rows as a table (today by default).",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := store.New(cfg.Storage.Format, cfg.Storage.Path)
		if err != nil {
			return err
		}
		rows, err := table.Load()
		if err != nil {
			return err
		}

		if !showAll {
			day := showDate
			if day == "" {
				loc, err := cfg.Location()
				if err != nil {
					return err
				}
				day = time.Now().In(loc).Format(model.DateLayout)
			}
			rows = writer.RowsFor(rows, day)
		}

		renderRows(cmd.OutOrStdout(), rows)
		fmt.Fprintf(cmd.OutOrStdout(), "%d rows in %s\n", len(rows), table.Path())
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showDate, "date", "", "trading day to show")
	showCmd.Flags().BoolVar(&showAll, "all", false, "show every stored day")
	rootCmd.AddCommand(showCmd)
}

func renderRows(w io.Writer, rows []model.StrikeRecord) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Date", "Time", "Asset Price", "CE", "PE", "Fetched At"})
	for _, r := range rows {
		t.Append([]string{
			r.Date,
			r.Time,
			r.AssetPrice.String(),
			r.CE.String(),
			r.PE.String(),
			r.FetchedAt,
		})
	}
	t.Render()
}
