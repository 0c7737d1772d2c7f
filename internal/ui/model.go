package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mxcd/updatify/internal/launcher"
	"github.com/rs/zerolog/log"
)

type launchDoneMsg struct {
	status launcher.ExitStatus
	err    error
}

// Model is the launcher window: one button that runs the dialog command
type Model struct {
	ctx     context.Context
	trigger *launcher.Trigger
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	busy     bool
	status   string
	dialog   string
	launches int
	width    int
}

// NewModel creates the launcher window for trigger
func NewModel(ctx context.Context, trigger *launcher.Trigger) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		trigger: trigger,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: s,
		status:  "Press enter to open a dialog",
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Busy reports whether a launch is in flight; the button is disabled meanwhile
func (m Model) Busy() bool {
	return m.busy
}

// Dialog returns the error message currently shown, if any
func (m Model) Dialog() string {
	return m.dialog
}

func (m Model) launch() tea.Cmd {
	ctx, trigger := m.ctx, m.trigger
	return func() tea.Msg {
		status, err := trigger.Fire(ctx)
		return launchDoneMsg{status: status, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}

		if m.dialog != "" {
			if key.Matches(msg, m.keys.Dismiss) {
				m.dialog = ""
			}
			return m, nil
		}

		if key.Matches(msg, m.keys.Launch) {
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = fmt.Sprintf("Running %s", m.trigger.Command())
			return m, tea.Batch(m.launch(), m.spinner.Tick)
		}

	case launchDoneMsg:
		m.busy = false
		m.launches++

		if msg.err != nil {
			if errors.Is(msg.err, launcher.ErrBusy) {
				return m, nil
			}
			log.Debug().Err(msg.err).Msg("Launch failed")
			m.status = "Last launch failed"
			m.dialog = msg.err.Error()
			return m, nil
		}

		m.status = okStyle.Render("✓") + fmt.Sprintf(" Dialog closed after %s", msg.status.Duration.Round(time.Millisecond))

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Dialog launcher"))
	b.WriteString("\n")

	if m.busy {
		b.WriteString(disabledButtonStyle.Render("Launch"))
		b.WriteString(" " + m.spinner.View())
	} else {
		b.WriteString(buttonStyle.Render("Launch"))
	}
	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render(m.status))

	if m.dialog != "" {
		body := lipgloss.JoinVertical(lipgloss.Left,
			dialogTitleStyle.Render("Launch failed"),
			"",
			m.dialog,
			"",
			statusStyle.Render("esc to close"),
		)
		b.WriteString("\n")
		b.WriteString(dialogStyle.Render(body))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return frameStyle.Render(b.String())
}

// Run opens the launcher window and blocks until the user quits
func Run(ctx context.Context, trigger *launcher.Trigger) error {
	program := tea.NewProgram(NewModel(ctx, trigger), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("launcher window failed: %w", err)
	}
	return nil
}
