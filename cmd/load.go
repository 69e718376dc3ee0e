package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/violation-portal/internal/dashboard"
)

var loadFormat string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run one load cycle and print the enriched violations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loadFormat != "table" && loadFormat != "json" {
			return eris.Errorf("load: unknown format %q (want table or json)", loadFormat)
		}

		ctx := cmd.Context()
		env, err := initPortal(ctx, "load")
		if err != nil {
			return err
		}
		defer env.Close()

		loc, err := cfg.Dashboard.Location()
		if err != nil {
			return err
		}

		records, err := env.Checker.Load(ctx)
		if err != nil {
			return err
		}

		rows := dashboard.NewRows(records, time.Now(), loc)
		if loadFormat == "json" {
			return writeRowsJSON(cmd.OutOrStdout(), rows)
		}
		return writeRowsTable(cmd.OutOrStdout(), rows)
	},
}

func writeRowsJSON(w io.Writer, rows []dashboard.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return eris.Wrap(err, "load: encode json")
	}
	return nil
}

func writeRowsTable(w io.Writer, rows []dashboard.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tVEHICLE\tLOCATION\tDATE TIME\tDAYS LEFT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", r.CaseNumber, r.VehicleNumber, r.Address, r.DateTime, r.DaysRemaining)
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "load: write table")
	}
	return nil
}

func init() {
	loadCmd.Flags().StringVar(&loadFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(loadCmd)
}
