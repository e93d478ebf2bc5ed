package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/spotctl/internal/adapters/config"
	"github.com/mikey-austin/spotctl/internal/adapters/output"
	"github.com/mikey-austin/spotctl/internal/client"
	"github.com/mikey-austin/spotctl/pkg/np"
)

type app struct {
	client  requester
	printer output.Printer
	quiet   bool
	timeout time.Duration
}

type requester interface {
	Addr() string
	Send(ctx context.Context, cmd string) error
	CurrentTrack(ctx context.Context) (np.Track, error)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(ExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "spotctl",
		Short:         "Control a spotd playback session",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	var (
		addr    string
		timeout time.Duration
		quiet   bool
		jsonOut bool
	)

	root.PersistentFlags().StringVarP(&addr, "addr", "a", "", "spotd address or alias (default "+np.DefaultListen+")")
	root.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 2*time.Second, "reply timeout")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	root.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output json")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if fromContext(cmd) != nil {
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return WrapError(ExitUsage, "cannot load config", err)
		}
		if addr == "" {
			addr = cfg.Addr
		}
		if addr == "" {
			addr = np.DefaultListen
		}
		if !cmd.Flags().Changed("timeout") && cfg.TimeoutMS > 0 {
			timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
		}

		var printer output.Printer = output.HumanPrinter{Out: cmd.OutOrStdout()}
		if jsonOut {
			printer = output.JSONPrinter{Out: cmd.OutOrStdout()}
		}

		setApp(cmd, &app{
			client:  client.New(cfg.Resolve(addr), timeout),
			printer: printer,
			quiet:   quiet,
			timeout: timeout,
		})
		return nil
	}

	root.AddCommand(sendCommand("next", "Skip to the next track", np.CmdNext))
	root.AddCommand(sendCommand("pause", "Pause playback", np.CmdPause))
	root.AddCommand(sendCommand("resume", "Activate the session and resume playback", np.CmdResume))
	root.AddCommand(currentCommand())
	root.AddCommand(rawCommand())

	return root
}

type appKey struct{}

func setApp(cmd *cobra.Command, a *app) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey{}, a))
}

func fromContext(cmd *cobra.Command) *app {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	val := ctx.Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func (a *app) send(ctx context.Context, command string) error {
	if err := a.client.Send(ctx, command); err != nil {
		return WrapError(ExitRuntime, fmt.Sprintf("cannot send %s", command), err)
	}
	if a.quiet {
		return nil
	}
	return a.printer.Print(output.SentResult{Command: command, Addr: a.client.Addr()})
}

func (a *app) current(ctx context.Context) error {
	track, err := a.client.CurrentTrack(ctx)
	if err != nil {
		if errors.Is(err, client.ErrTimeout) {
			return WrapError(ExitTimeout, "no reply from "+a.client.Addr(), err)
		}
		return WrapError(ExitRuntime, "current track request failed", err)
	}
	return a.printer.Print(track)
}
