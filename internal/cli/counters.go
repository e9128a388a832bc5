package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"clipforge/internal/config"
)

// newCountersCommand shows how many times each known source has been
// processed, which is what seeds start-point variation.
func newCountersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "counters",
		Short: "Show processing counts per source video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			b, err := os.ReadFile(cfg.Paths.CounterFile)
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "no sources processed yet")
				return nil
			}
			if err != nil {
				return err
			}
			counters := map[string]int{}
			if err := json.Unmarshal(b, &counters); err != nil {
				return fmt.Errorf("decode counter store: %w", err)
			}

			keys := make([]string, 0, len(counters))
			for k := range counters {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			tw := table.NewWriter()
			tw.AppendHeader(table.Row{"Source", "Runs"})
			for _, k := range keys {
				tw.AppendRow(table.Row{k, counters[k]})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}
}
