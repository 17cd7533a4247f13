package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Print the vendor format of a meter export",
		Args:  cobra.ExactArgs(1),
		Run:   runDetect,
	}

	RootCmd.AddCommand(cmd)
}

func runDetect(cmd *cobra.Command, args []string) {
	cfg, logger := setup()
	defer logger.Sync()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read file", err)
	}
	engine, err := newEngine(cfg, logger)
	if err != nil {
		exitErr("configure engine", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), engine.DetectFormat(string(raw)))
}
