package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"skyscope/internal/logging"
	"skyscope/internal/orchestrator"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// promptModel reads one directive. Empty input keeps the prompt open;
// exit, quit, Ctrl+C and Esc end the session.
type promptModel struct {
	input     textinput.Model
	directive string
	quit      bool
}

func newPromptModel() promptModel {
	ti := textinput.New()
	ti.Placeholder = "Enter a directive, or exit to quit"
	ti.Prompt = "skyscope> "
	ti.PromptStyle = labelStyle
	ti.CharLimit = 4000
	ti.Width = 80
	ti.Focus()
	return promptModel{input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quit = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			switch {
			case line == "":
				return m, nil
			case isExitCommand(line):
				m.quit = true
			default:
				m.directive = line
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.quit || m.directive != "" {
		return ""
	}
	return m.input.View() + "\n"
}

func isExitCommand(line string) bool {
	switch strings.ToLower(line) {
	case "exit", "quit":
		return true
	}
	return false
}

// readDirective shows the prompt until a directive or an exit command is
// entered. ok is false when the session should end.
func readDirective(in io.Reader, out io.Writer) (directive string, ok bool, err error) {
	p := tea.NewProgram(newPromptModel(), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", false, fmt.Errorf("prompt failed: %w", err)
	}
	m := final.(promptModel)
	if m.quit {
		return "", false, nil
	}
	return m.directive, true, nil
}

// runInteractive is the root command: a prompt loop over one pipeline.
// Run errors are printed and the prompt continues.
func runInteractive(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printBanner(out)

	orch, closer, err := orchestrator.NewFromConfig(context.Background(), cfg, avail)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer closeQuietly(closer)

	return promptLoop(cmd.InOrStdin(), out, orch, readDirective)
}

type readFunc func(in io.Reader, out io.Writer) (string, bool, error)

func promptLoop(in io.Reader, out io.Writer, p pipeline, read readFunc) error {
	for {
		directive, ok, err := read(in, out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, mutedStyle.Render("Session closed."))
			return nil
		}
		if _, err := runDirective(out, p, directive, flags.preview); err != nil {
			logging.PipelineWarn("interactive run failed: %v", err)
			fmt.Fprintln(out, errorStyle.Render("error: ")+err.Error())
		}
		fmt.Fprintln(out)
	}
}
