package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"clipforge/internal/types"
)

// renderManifestTable summarizes a finished run for the terminal. Styling
// is dropped when stdout is not a TTY so piped output stays parseable.
func renderManifestTable(m types.Manifest) string {
	tw := table.NewWriter()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	tw.AppendHeader(table.Row{"Clip", "Start", "End", "Length", "Video"})
	for _, clip := range m.Clips {
		tw.AppendRow(table.Row{
			clip.ID,
			fmt.Sprintf("%.1fs", clip.StartSec),
			fmt.Sprintf("%.1fs", clip.EndSec),
			fmt.Sprintf("%.1fs", clip.DurationSec),
			clip.VideoPath,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	return fmt.Sprintf("run %s: %d clips\n%s", m.RunID, m.TotalClips, tw.Render())
}
