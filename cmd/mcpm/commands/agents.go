package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mcpm-dev/mcpm/internal/agents"
)

var agentsAll bool

func init() {
	agentsCmd.Flags().BoolVar(&agentsAll, "all", false,
		"list every supported agent, not just the detected ones")
	rootCmd.AddCommand(agentsCmd)
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List supported AI client apps",
	Long: `List the AI client apps mcpm can sync into, their config file
locations, and whether they look installed on this machine.

Examples:
  mcpm agents
  mcpm agents --all`,
	RunE: runAgents,
}

func runAgents(cmd *cobra.Command, _ []string) error {
	return runAgentsWithWriter(cmd.OutOrStdout())
}

func runAgentsWithWriter(w io.Writer) error {
	profiles := agents.All()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sID%s\t%sNAME%s\t%sFORMAT%s\t%sCONFIG%s\t%sSTATUS%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)

	shown := 0
	for _, p := range profiles {
		installed := p.Installed()
		if !installed && !agentsAll {
			continue
		}
		status := colorGray + "not detected" + colorReset
		if installed {
			status = colorGreen + "detected" + colorReset
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.DisplayName, p.Format, p.GlobalPath, status)
		shown++
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if shown == 0 {
		fmt.Fprintln(w, "No supported agents detected. Use --all to list every supported agent.")
	}
	return nil
}
