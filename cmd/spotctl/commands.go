package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/spotctl/pkg/np"
)

func sendCommand(use string, short string, command string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			return app.send(ctx, command)
		},
	}
}

func currentCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "current",
		Aliases: []string{"current_track", "now"},
		Short:   "Show the currently playing track",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			return app.current(ctx)
		},
	}
}

func rawCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send <command...>",
		Short: "Send a raw protocol command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			command := strings.Join(args, " ")
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			if np.ExpectsReply(np.ParseRequest([]byte(command))) {
				return app.current(ctx)
			}
			return app.send(ctx, command)
		},
	}
}
