package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/mxcd/updatify/internal/actions"
	"github.com/mxcd/updatify/internal/configuration"
	"github.com/mxcd/updatify/internal/git"
	"github.com/mxcd/updatify/internal/launcher"
	"github.com/mxcd/updatify/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var version = "development"

func main() {

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{},
		Usage:   "print only the version",
	}

	cmd := &cli.Command{
		Name:    "updatify",
		Version: version,
		Usage:   "Keep a dotfiles checkout up to date and launch desktop dialogs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file or directory",
				Value:   configuration.DefaultConfigPath,
				Sources: cli.EnvVars("UPDATIFY_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   "Path to the dotfiles checkout (overrides repoPath)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "debug output",
				Sources: cli.EnvVars("UPDATIFY_VERBOSE"),
			},
			&cli.BoolFlag{
				Name:    "very-verbose",
				Aliases: []string{"vv"},
				Usage:   "trace output",
				Sources: cli.EnvVars("UPDATIFY_VERY_VERBOSE"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return initCli(ctx, cmd)
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Fetch and show pending upstream commits",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output format: table, json, yaml",
						Value: "table",
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Only list commits whose subject, author or hash matches",
					},
					&cli.BoolFlag{
						Name:  "fail-on-updates",
						Usage: "Exit with code 1 when updates are available",
					},
				},
				Action: statusCommand,
			},
			{
				Name:  "update",
				Usage: "Pull upstream changes, run the installer and the post-install script",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "post-install",
						Usage: "Script to run after a successful update (overrides postInstall.script)",
					},
					&cli.StringFlag{
						Name:  "installer-mode",
						Usage: "Installer mode: files-only, full, none (overrides installer.mode)",
					},
					&cli.BoolFlag{
						Name:  "apply-tweaks",
						Usage: "Remove the configured tweak files after updating",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Show the update plan without changing anything",
					},
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Apply without asking for confirmation",
					},
				},
				Action: updateCommand,
			},
			{
				Name:  "launch",
				Usage: "Open the launcher window, or run the dialog command once with --no-window",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-window",
						Usage: "Run the command once and report on the console",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Kill the command after this duration (0 waits indefinitely)",
					},
				},
				Action: launchCommand,
			},
			{
				Name:  "validate",
				Usage: "Validate configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output format: table, json, yaml",
						Value: "table",
					},
				},
				Action: validateCommand,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("command terminated with error")
	}
}

func initCli(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	godotenv.Load()
	util.SetCliLoggerDefaults()
	util.SetCliLogLevel(cmd)
	log.Trace().Msg("Trace logging enabled")
	log.Debug().Msg("Debug logging enabled")

	return ctx, nil
}

func loadOptions(cmd *cli.Command) *actions.LoadOptions {
	return &actions.LoadOptions{
		ConfigPath:     cmd.String("config"),
		ConfigRequired: cmd.IsSet("config"),
		RepoPath:       cmd.String("repo"),
	}
}

func statusCommand(ctx context.Context, cmd *cli.Command) error {
	config, err := actions.LoadConfig(loadOptions(cmd))
	if err != nil {
		return exitWithError(err)
	}

	result, err := actions.Status(ctx, &actions.StatusOptions{
		Config:       config,
		OutputFormat: cmd.String("output"),
		Filter:       cmd.String("filter"),
	})
	if err != nil {
		return exitWithError(err)
	}

	// Exit with code 1 if there are pending updates (for scripting)
	if cmd.Bool("fail-on-updates") && result.HasUpdates() {
		return cli.Exit("", 1)
	}

	return nil
}

func updateCommand(ctx context.Context, cmd *cli.Command) error {
	config, err := actions.LoadConfig(loadOptions(cmd))
	if err != nil {
		return exitWithError(err)
	}

	options := &actions.ApplyOptions{
		PostInstallScript: cmd.String("post-install"),
		InstallerMode:     configuration.InstallerMode(cmd.String("installer-mode")),
		ApplyTweaks:       cmd.Bool("apply-tweaks"),
		DryRun:            cmd.Bool("dry-run"),
	}
	if options.InstallerMode != "" && !options.InstallerMode.Valid() {
		return cli.Exit(fmt.Sprintf("Invalid installer mode: %s (expected files-only, full or none)", options.InstallerMode), 3)
	}

	updater := actions.NewUpdater(config)
	updater.Stdin = os.Stdin
	if !cmd.Bool("yes") {
		if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) && !options.DryRun {
			return cli.Exit("Refusing to update without a terminal, pass --yes to confirm", 1)
		}
		updater.Confirm = confirmPlan
	}

	if _, err := updater.Apply(ctx, options); err != nil {
		return exitWithError(err)
	}

	return nil
}

// confirmPlan asks on the terminal whether the printed plan should be applied
func confirmPlan(plan *actions.ApplyPlan) (bool, error) {
	prompt := "Apply update? [y/N] "
	if !plan.Pull {
		prompt = "Nothing to pull, run the remaining steps anyway? [y/N] "
	}
	color.New(color.Bold).Fprint(os.Stdout, prompt)

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && answer == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func launchCommand(ctx context.Context, cmd *cli.Command) error {
	config, err := actions.LoadConfig(loadOptions(cmd))
	if err != nil {
		return exitWithError(err)
	}

	err = actions.Launch(ctx, &actions.LaunchOptions{
		Config:   config,
		NoWindow: cmd.Bool("no-window"),
		Timeout:  cmd.Duration("timeout"),
	})
	if err != nil {
		return exitWithError(err)
	}

	return nil
}

func validateCommand(ctx context.Context, cmd *cli.Command) error {
	err := actions.Validate(&actions.ValidateOptions{
		LoadOptions:  *loadOptions(cmd),
		OutputFormat: cmd.String("output"),
	})
	if err != nil {
		return exitWithError(err)
	}

	return nil
}

func exitWithError(err error) error {
	code := exitCode(err)
	log.Debug().Err(err).Int("code", code).Msg("Command failed")
	return cli.Exit(err.Error(), code)
}

// exitCode maps an action error to the process exit status
func exitCode(err error) int {
	var (
		configErr      *actions.ConfigError
		notRepoErr     *git.NotARepositoryError
		conflictErr    *git.ApplyConflictError
		fetchErr       *git.FetchError
		missingRemote  *git.MissingRemoteError
		installerErr   *actions.InstallerError
		postInstallErr *actions.PostInstallError
		missingBinary  *launcher.MissingBinaryError
		subprocessErr  *launcher.SubprocessFailure
		timeoutErr     *launcher.TimeoutError
		invalidCommand *launcher.InvalidCommandError
	)

	switch {
	case err == nil:
		return 0
	case errors.As(err, &conflictErr):
		return 2
	case errors.As(err, &configErr), errors.As(err, &notRepoErr):
		return 3
	case errors.As(err, &fetchErr), errors.As(err, &missingRemote):
		return 4
	case errors.As(err, &installerErr), errors.As(err, &postInstallErr):
		return 5
	case errors.As(err, &missingBinary), errors.As(err, &subprocessErr),
		errors.As(err, &timeoutErr), errors.As(err, &invalidCommand),
		errors.Is(err, launcher.ErrBusy):
		return 6
	default:
		return 1
	}
}
