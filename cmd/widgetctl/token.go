package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewTokenCommand() *cobra.Command {
	f := NewTokenFlags()

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch a feedback token and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := f.Client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), f.Timeout)
			defer cancel()

			token, err := client.FetchToken(ctx)
			if err != nil {
				return fmt.Errorf("couldn't fetch token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	f.BindFlags(cmd.Flags())

	return cmd
}
