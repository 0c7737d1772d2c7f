package actions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mxcd/updatify/internal/configuration"
	"github.com/rs/zerolog/log"
)

// runInstaller runs the checkout's setup script. A failed files-only install
// is retried once as a full install.
func (u *Updater) runInstaller(ctx context.Context, args []string, result *ApplyResult) error {
	setupPath, err := filepath.Abs(filepath.Join(u.config.RepoPath, u.config.Installer.SetupScript))
	if err != nil || !isExecutableFile(setupPath) {
		warning := fmt.Sprintf("No executable %s found, skipping installer", u.config.Installer.SetupScript)
		log.Warn().Str("path", setupPath).Msg(warning)
		result.Warnings = append(result.Warnings, warning)
		return nil
	}

	fmt.Fprintf(writerOrStdout(u.Output), "\n🛠️  Running installer: ./%s %s\n", u.config.Installer.SetupScript, strings.Join(args, " "))

	exitCode, err := u.runStreaming(ctx, setupPath, args, nil)
	if err != nil && slices.Equal(args, configuration.InstallerModeFilesOnly.Args()) {
		log.Warn().Err(err).Msg("Files-only install failed, retrying with full install")
		args = configuration.InstallerModeFull.Args()
		exitCode, err = u.runStreaming(ctx, setupPath, args, nil)
	}
	result.InstallerRan = true

	if err != nil {
		return &InstallerError{Script: u.config.Installer.SetupScript, Args: args, ExitCode: exitCode, Err: err}
	}

	return nil
}

// runPostInstall runs the user's script exactly once. A missing script is a
// warning, not an error.
func (u *Updater) runPostInstall(ctx context.Context, script string, result *ApplyResult) error {
	info, err := os.Stat(script)
	if err != nil || info.IsDir() {
		warning := fmt.Sprintf("Post-install script %s not found, skipping", script)
		log.Warn().Str("script", script).Msg(warning)
		result.Warnings = append(result.Warnings, warning)
		return nil
	}

	fmt.Fprintf(writerOrStdout(u.Output), "\n⚙️  Running post-install script: %s\n", script)

	env := []string{
		fmt.Sprintf("%s=%s", configuration.RepoPathEnv, u.config.RepoPath),
		fmt.Sprintf("UPDATIFY_OLD_HEAD=%s", result.OldHead),
		fmt.Sprintf("UPDATIFY_NEW_HEAD=%s", result.NewHead),
	}
	for key, value := range u.config.PostInstall.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	program, args := script, []string(nil)
	if info.Mode()&0111 == 0 {
		program, args = "bash", []string{script}
	}

	result.PostInstallRan = true
	exitCode, err := u.runStreaming(ctx, program, args, env)
	if err != nil {
		return &PostInstallError{Script: script, ExitCode: exitCode, Err: err}
	}

	return nil
}

// runStreaming runs a program in the checkout, streaming its output to the
// user. Stderr is also kept so failures carry the message.
func (u *Updater) runStreaming(ctx context.Context, program string, args []string, env []string) (int, error) {
	log.Debug().Str("program", program).Strs("args", args).Msg("Running command")

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = u.config.RepoPath
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = u.Stdin

	var stderr bytes.Buffer
	cmd.Stdout = writerOrStdout(u.Output)
	cmd.Stderr = io.MultiWriter(&stderr, writerOrStdout(u.Output))

	err := cmd.Run()
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && stderr.Len() > 0 {
		return exitCode, fmt.Errorf("%w, output: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return exitCode, err
}

// removeTweakFiles deletes the configured files. Failures are only warnings.
func removeTweakFiles(files []string, result *ApplyResult) []string {
	removed := make([]string, 0, len(files))

	for _, file := range files {
		err := os.Remove(file)
		switch {
		case err == nil:
			log.Debug().Str("file", file).Msg("Removed file")
			removed = append(removed, file)
		case errors.Is(err, os.ErrNotExist):
			log.Debug().Str("file", file).Msg("File already absent")
		default:
			warning := fmt.Sprintf("Could not remove %s: %v", file, err)
			log.Warn().Err(err).Str("file", file).Msg("Could not remove file")
			result.Warnings = append(result.Warnings, warning)
		}
	}

	return removed
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
