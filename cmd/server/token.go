package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phrazzld/tasktalk-api/internal/service/auth"
)

func newTokenCommand() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID <= 0 {
				return errors.New("--user must be a positive id")
			}
			cfg, l, err := initializeApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			tokens, err := auth.NewTokenService(cfg.Auth)
			if err != nil {
				return fmt.Errorf("failed to initialize token service: %w", err)
			}
			token, err := tokens.IssueToken(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			l.Debug("issued token", "user_id", userID)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id the token authenticates")
	return cmd
}
