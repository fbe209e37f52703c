package console

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type stopSpinnerMsg struct{}

// spinnerModel is a one-line bubbletea program showing a message beside a
// spinner until it receives stopSpinnerMsg.
type spinnerModel struct {
	spinner spinner.Model
	message string
	done    bool
}

func newSpinnerModel(message string, st styles) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = st.brand
	return spinnerModel{spinner: s, message: st.muted.Render(message)}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case stopSpinnerMsg:
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View clears the line once stopped so nothing is left behind.
func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.message
}

// Spin shows message with a spinner while fn runs. The program has fully
// exited, and the line is cleared, when Spin returns.
func (c *Console) Spin(message string, fn func() error) error {
	if !c.animate {
		return fn()
	}

	p := tea.NewProgram(newSpinnerModel(message, c.style),
		tea.WithOutput(c.spinOut),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	exited := make(chan struct{})
	go func() {
		defer close(exited)
		_, _ = p.Run()
	}()

	err := fn()
	p.Send(stopSpinnerMsg{})
	<-exited
	return err
}
