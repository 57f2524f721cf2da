package cli

import (
	"github.com/spf13/cobra"

	"github.com/wmrmrx/MAC0352-EP2/internal/api/response"
)

func newStatusCmd(cfg *ClientConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query the server's status API",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result response.HealthResponse
			if err := NewAPIClient(cfg.APIURL).Get("/api/v1/health", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "users [name]",
		Short: "List online users, or show one user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			c := NewAPIClient(cfg.APIURL)
			if len(args) == 1 {
				var result response.UserResponse
				if err := c.Get(userPath(args[0]), &result); err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			var result response.UsersResponse
			if err := c.Get("/api/v1/users", &result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result response.LeaderboardResponse
			if err := NewAPIClient(cfg.APIURL).Get("/api/v1/leaderboard", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	})

	return cmd
}
