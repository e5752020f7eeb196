package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/paraglidehq/snowflake/postgres"
)

const envDSN = "SNOWFLAKE_DSN"

func newMigrateCommand(global *globalOptions) *cobra.Command {
	var (
		dsn          string
		datacenterID int64
		nodeID       int64
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Install the snowflake SQL helpers into a Postgres database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = os.Getenv(envDSN)
			}
			if dsn == "" {
				return errors.New("a Postgres DSN is required (--dsn or " + envDSN + ")")
			}
			_, log, err := global.loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			pgcfg := postgres.DefaultConfig()
			if cmd.Flags().Changed("datacenter") {
				pgcfg.DatacenterID = datacenterID
			}
			if cmd.Flags().Changed("node") {
				pgcfg.NodeID = nodeID
			}
			if err := pgcfg.Validate(); err != nil {
				return err
			}

			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db, pgcfg); err != nil {
				return err
			}
			log.Info("snowflake helpers installed",
				"datacenter_id", pgcfg.DatacenterID, "node_id", pgcfg.NodeID)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string (default $"+envDSN+")")
	cmd.Flags().Int64Var(&datacenterID, "datacenter", 31, "datacenter ID reserved for snowflake_next_id()")
	cmd.Flags().Int64Var(&nodeID, "node", 31, "node ID reserved for snowflake_next_id()")
	return cmd
}
