package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phrazzld/tasktalk-api/internal/mcpserver"
	"github.com/phrazzld/tasktalk-api/internal/service/auth"
	"github.com/phrazzld/tasktalk-api/internal/tools"
)

func newMCPCommand() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the task tools over MCP on stdio",
		Long: `mcp exposes the task tools to an MCP client over stdin and stdout.
Every call runs as the user the --token authenticates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				return errors.New("--token is required")
			}
			cfg, l, err := initializeApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			tokens, err := auth.NewTokenService(cfg.Auth)
			if err != nil {
				return fmt.Errorf("failed to initialize token service: %w", err)
			}
			ownerID, err := mcpserver.Authorize(ctx, tokens, token)
			if err != nil {
				return fmt.Errorf("invalid token: %w", err)
			}

			app := &application{config: cfg, logger: l}
			defer app.cleanup(ctx)
			if err := app.openStore(ctx); err != nil {
				return err
			}

			exec := tools.NewExecutor(app.store.Tasks(), tools.MustDecoder(), l)
			srv, err := mcpserver.New(exec, ownerID, l)
			if err != nil {
				return err
			}
			l.Info("serving MCP on stdio", "user_id", ownerID)
			return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token identifying the user")
	return cmd
}
