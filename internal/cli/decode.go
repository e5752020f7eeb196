package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paraglidehq/snowflake"
)

func newDecodeCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "decode <id>...",
		Short: "Split IDs into timestamp, datacenter, node and sequence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := snowflake.ParseFormat(format)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUNIX_MS\tDATACENTER\tNODE\tSEQ")
			for _, arg := range args {
				id, err := snowflake.ParseFormatted(arg, f)
				if err != nil {
					return fmt.Errorf("decode %q: %w", arg, err)
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
					id.Format(snowflake.FormatDecimal), id.UnixMilli(), id.Datacenter(), id.Node(), id.Seq())
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(snowflake.FormatDecimal), "input format")
	return cmd
}
