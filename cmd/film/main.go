package main // Entry point package

import (
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CLI flags
var (
	envFile   string
	verbosity int
	demoID    int64
)

// errFailed marks an operation whose notice already told the user what went
// wrong; main only has to set the exit status.
var errFailed = errors.New("operation failed")

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			log.Error().Err(err).Msg("film")
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "film",
		Short: "Manage the film table in PostgreSQL",
		Long: `film inserts, lists, updates and deletes rows of the film table.
Every operation opens its own connection, runs one statement and closes it.

Without a subcommand it checks connectivity, lists the films, deletes the
film given by --demo-id and lists them again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(verbosity)
		},
		RunE: runDemo,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file to seed environment variables from (ignored if missing)")
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	root.Flags().Int64Var(&demoID, "demo-id", 4, "film_id deleted by the demo sequence")

	root.AddCommand(
		newCheckCmd(),
		newListCmd(),
		newGetCmd(),
		newAddCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newServeCmd(),
		newConsumeCmd(),
	)
	return root
}

// setupLogging writes diagnostics to stderr so stdout carries only notices.
func setupLogging(verbosity int) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"}

	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default: // 2+
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
