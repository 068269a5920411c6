package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type jobDoneMsg struct {
	err error
}

// jobSpinnerModel shows a spinner until the job's command reports back.
type jobSpinnerModel struct {
	spinner spinner.Model
	label   string
	job     tea.Cmd
	err     error
	done    bool
}

func newJobSpinnerModel(label string, job tea.Cmd) jobSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return jobSpinnerModel{
		spinner: s,
		label:   label,
		job:     job,
	}
}

func (m jobSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.job)
}

func (m jobSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case jobDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m jobSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runWithSpinner(ctx context.Context, output io.Writer, label string, job func(context.Context) error) error {
	jobCmd := func() tea.Msg {
		return jobDoneMsg{err: job(ctx)}
	}

	p := tea.NewProgram(
		newJobSpinnerModel(label, jobCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(jobSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
