package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/xmldoc2json/internal/aggregator"
)

var (
	// Version information - typically set via ldflags at build time
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of xmldoc2json",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "xmldoc2json %s\n", Version)
			fmt.Fprintf(out, "Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "Build date: %s\n", BuildDate)
			fmt.Fprintf(out, "Output schema: %s (file mode), %s (directory mode)\n",
				aggregator.FileModeVersion, aggregator.DirModeVersion)
		},
	}
}
