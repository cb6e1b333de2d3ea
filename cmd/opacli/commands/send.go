package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [command line]",
	Short: "Send a single command and print its response, then exit",
	Long: `send connects, sends exactly one command parsed the same way the
interactive prompt parses it, prints the response, and disconnects.
Useful for scripting (e.g. from a shell one-liner) rather than piping
lines into the interactive prompt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line := strings.Join(args, " ")
		s, err := dial(Flags)
		if err != nil {
			return err
		}
		defer s.close()
		return runOne(s, line, Flags)
	},
}
