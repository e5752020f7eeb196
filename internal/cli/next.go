package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paraglidehq/snowflake/internal/config"
)

func newNextCommand(global *globalOptions) *cobra.Command {
	var (
		count        int
		datacenterID int64
		nodeID       int64
		format       string
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Allocate one or more IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", count)
			}
			cfg, log, err := global.loadConfig(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("datacenter") {
					c.DatacenterID = datacenterID
				}
				if cmd.Flags().Changed("node") {
					c.NodeID = nodeID
				}
				if cmd.Flags().Changed("format") {
					c.Format = format
				}
			})
			if err != nil {
				return err
			}

			g, err := cfg.NewGenerator(log)
			if err != nil {
				return err
			}
			log.Debug("generator configured",
				"datacenter_id", cfg.DatacenterID, "node_id", cfg.NodeID, "count", count)

			out := cmd.OutOrStdout()
			f := cfg.IDFormat()
			for i := 0; i < count; i++ {
				id, err := g.Next()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, id.Format(f))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of IDs to allocate")
	cmd.Flags().Int64Var(&datacenterID, "datacenter", 0, "datacenter ID (0-31)")
	cmd.Flags().Int64Var(&nodeID, "node", 0, "node ID (0-31)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format (decimal, base58, crockford, base64, hash)")

	return cmd
}
