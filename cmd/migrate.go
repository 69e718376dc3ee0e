package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/violation-portal/internal/docstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the documents table for the postgres or sqlite store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := docstore.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		m, ok := st.(docstore.Migrator)
		if !ok {
			return eris.Errorf("migrate: store driver %q has no schema", cfg.Store.Driver)
		}
		if err := m.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		zap.L().Info("migration complete", zap.String("store", cfg.Store.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
