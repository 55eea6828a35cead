package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bdia-labs/gaia-bench/internal/config"
)

// benchState carries the config flag value and the loaded configuration
// between a command's PreRunE and its RunE.
type benchState struct {
	configPath string
	cfg        *config.Config
}

// load is the PreRunE shared by every subcommand that needs configuration.
func (st *benchState) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	st.cfg = cfg
	return nil
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	_ = godotenv.Load()

	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &benchState{configPath: config.DefaultPath}

	root := &cobra.Command{
		Use:           "gaia-bench",
		Short:         "Benchmark LLMs against the GAIA question set",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "path to config file")

	root.AddCommand(
		newSeedCmd(st),
		newAskCmd(st),
		newQuestionsCmd(st),
		newOutcomesCmd(st),
		newDashboardCmd(st),
	)
	return root
}
