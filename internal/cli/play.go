package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wmrmrx/MAC0352-EP2/internal/client"
	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/clock"
	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/random"
)

// NewClientCmd creates the game client command with its status subcommands
func NewClientCmd() *cobra.Command {
	cfg := DefaultClientConfig()

	cmd := &cobra.Command{
		Use:   "pacman",
		Short: "Multiplayer Pacman game client",
		Long: `pacman connects to a pacman-server and opens an interactive shell.

Log in, then host a game as Pacman or join another player's game as the
second ghost. Type help at any prompt for the commands available there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := cfg.ServerConnection()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ccfg := client.DefaultConfig(server)
			ccfg.FailHard = cfg.FailHard
			shell := client.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
			logger := newLogger(os.Stderr, cfg.Verbose, false)

			return client.New(ccfg, shell, random.New(), clock.New(), logger).Run(ctx)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&cfg.Server, "server", "s", cfg.Server, "Game server host:port (env: PACMAN_SERVER)")
	cmd.PersistentFlags().StringVar(&cfg.APIURL, "api", cfg.APIURL, "Status API URL (env: PACMAN_API)")
	cmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Status output format: text, json")
	cmd.Flags().StringVar(&cfg.Protocol, "protocol", cfg.Protocol, "Transport to the server: udp or tcp (env: PACMAN_PROTOCOL)")
	cmd.Flags().BoolVar(&cfg.FailHard, "fail-hard", cfg.FailHard, "End a hosted game when the challenger's connection fails")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Debug logging on stderr")

	cmd.AddCommand(newStatusCmd(cfg))

	return cmd
}
