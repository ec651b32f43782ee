package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatwidgets/internal/widget"
)

func NewTagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the user-defined types that have a widget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, tag := range widget.NewDispatcher().Tags() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), tag); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
