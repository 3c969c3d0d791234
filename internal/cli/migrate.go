package cli

import (
	"atspro/internal/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Long: `Create or upgrade every table the tracker uses. Safe to run repeatedly;
existing data is kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		logger, err := getLoggerFromContext(cmd.Context())
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(cmd.Context()); err != nil {
			return err
		}
		logger.Info("Database schema is up to date", "driver", cfg.Database.Driver)
		return nil
	},
}
