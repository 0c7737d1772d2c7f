package actions

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mxcd/updatify/internal/configuration"
	"github.com/mxcd/updatify/internal/launcher"
	"github.com/mxcd/updatify/internal/ui"
	"github.com/rs/zerolog/log"
)

type LaunchOptions struct {
	Config   *configuration.Config
	NoWindow bool          // run once and report on the console instead of opening the window
	Timeout  time.Duration // overrides launcher.timeout when set
	Output   io.Writer
}

// Launch runs the configured dialog command. Without NoWindow a window with a
// launch button is shown and every press runs the command once.
func Launch(ctx context.Context, options *LaunchOptions) error {
	timeout := options.Config.Launcher.Timeout
	if options.Timeout > 0 {
		timeout = options.Timeout
	}

	trigger := launcher.NewTrigger(options.Config.Launcher.Command, timeout)

	log.Debug().
		Str("command", trigger.Command()).
		Dur("timeout", timeout).
		Bool("window", !options.NoWindow).
		Msg("Starting launcher")

	if !options.NoWindow {
		return ui.Run(ctx, trigger)
	}

	return launchOnce(ctx, trigger, writerOrStdout(options.Output))
}

func launchOnce(ctx context.Context, trigger *launcher.Trigger, w io.Writer) error {
	fmt.Fprintf(w, "🚀 Launching: %s\n", trigger.Command())

	status, err := trigger.Fire(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Launch failed")
		fmt.Fprintf(w, "❌ Launch failed: %v\n", err)
		return err
	}

	if out := strings.TrimSpace(status.Stdout); out != "" {
		fmt.Fprintln(w, out)
	}
	fmt.Fprintf(w, "✅ Exited with status %d after %s\n", status.Code, status.Duration.Round(time.Millisecond))
	return nil
}
