package actions

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/mxcd/updatify/internal/configuration"
	"github.com/mxcd/updatify/internal/launcher"
)

func TestLaunch_NoWindow(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}

	tests := []struct {
		name    string
		command string
		want    string
		wantErr error
	}{
		{name: "success", command: `sh -c "echo dialog closed"`, want: "✅ Exited with status 0"},
		{name: "nonzero exit", command: `sh -c "exit 4"`, want: "❌ Launch failed", wantErr: &launcher.SubprocessFailure{}},
		{name: "missing binary", command: "updatify-no-such-dialog --info", want: "command not found", wantErr: &launcher.MissingBinaryError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := configuration.NewDefaultConfig()
			config.Launcher.Command = tt.command

			var out bytes.Buffer
			err := Launch(context.Background(), &LaunchOptions{Config: config, NoWindow: true, Output: &out})

			switch want := tt.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			case *launcher.SubprocessFailure:
				if !errors.As(err, &want) || want.ExitCode != 4 {
					t.Fatalf("expected SubprocessFailure with exit 4, got %v", err)
				}
			case *launcher.MissingBinaryError:
				if !errors.As(err, &want) {
					t.Fatalf("expected MissingBinaryError, got %v", err)
				}
			}

			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
		})
	}
}
