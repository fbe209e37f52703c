package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleOutput(t *testing.T) {
	tests := []struct {
		name  string
		emit  func(c *Console)
		wants []string
	}{
		{
			name:  "banner",
			emit:  func(c *Console) { c.Banner() },
			wants: []string{"n1browse", "Browser Agent"},
		},
		{
			name: "config summary",
			emit: func(c *Console) {
				c.ConfigSummary("find the weather", "https://www.google.com", 30, "n1-latest")
			},
			wants: []string{"Task", "find the weather", "Start URL", "https://www.google.com", "Max steps", "30", "Model", "n1-latest"},
		},
		{
			name:  "step",
			emit:  func(c *Console) { c.Step(2, 30, "Looking at results") },
			wants: []string{"Step 2/30", "Looking at results"},
		},
		{
			name:  "step without text",
			emit:  func(c *Console) { c.Step(1, 5, "") },
			wants: []string{"Step 1/5", "[no text]"},
		},
		{
			name:  "tool action",
			emit:  func(c *Console) { c.ToolAction("left_click", "(500, 300)") },
			wants: []string{"> left_click (500, 300)"},
		},
		{
			name:  "trim notice",
			emit:  func(c *Console) { c.TrimNotice(2, 8.4567, false) },
			wants: []string{"Trimmed 2 old screenshot(s); payload ~8.46 MB"},
		},
		{
			name:  "retry trim notice",
			emit:  func(c *Console) { c.TrimNotice(1, 1, true) },
			wants: []string{"Retrying after extra trim 1 old screenshot(s); payload ~1.00 MB"},
		},
		{
			name:  "early stop",
			emit:  func(c *Console) { c.EarlyStop() },
			wants: []string{"Early stop:", "sufficient information collected."},
		},
		{
			name:  "final answer",
			emit:  func(c *Console) { c.FinalAnswer("Paris") },
			wants: []string{"Final Answer", "Paris"},
		},
		{
			name:  "error",
			emit:  func(c *Console) { c.Error("Agent exhausted all steps and could not produce a final answer.") },
			wants: []string{"Error", "Agent exhausted all steps"},
		},
		{
			name:  "done",
			emit:  func(c *Console) { c.Done() },
			wants: []string{"Done."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(New(&buf))

			out := buf.String()
			for _, want := range tt.wants {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestStepTruncatesLongText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Step(1, 1, strings.Repeat("a", 400))

	out := buf.String()
	assert.Contains(t, out, strings.Repeat("a", 300)+"...")
	assert.NotContains(t, out, strings.Repeat("a", 301))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héllo...", truncate("héllo wörld", 5))
}

func TestSpinWithoutAnimation(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	calls := 0
	boom := errors.New("boom")
	err := c.Spin("Step 1/3 Thinking...", func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Empty(t, buf.String(), "no spinner output without a spinner writer")
}

func TestSpinAnimated(t *testing.T) {
	var out, spin bytes.Buffer
	c := New(&out, WithSpinner(&spin))

	calls := 0
	err := c.Spin("Synthesizing final answer...", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, out.String())
}

func TestSpinnerModelStops(t *testing.T) {
	m := newSpinnerModel("Thinking...", newStyles(lipgloss.NewRenderer(&bytes.Buffer{})))
	assert.Contains(t, m.View(), "Thinking...")

	next, cmd := m.Update(stopSpinnerMsg{})
	require.NotNil(t, cmd)
	assert.Empty(t, next.View())
}

func TestWizardLines(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	c.Title("n1browse", "Setup Wizard")
	c.Section(2, 5, "Yutori API Key")
	c.Success("Found existing Yutori API key", "abcd****wxyz")
	c.Failure("Yutori API: connection failed. Check your API key.")
	c.Hint("Skipped connectivity check.")
	c.Line("1. Sign up or log in at:")
	c.Prompt("Use existing key? [Y/n]")
	c.Panel("Setup complete!")

	out := buf.String()
	for _, want := range []string{
		"Setup Wizard",
		"Step 2 of 5  Yutori API Key",
		"Found existing Yutori API key  abcd****wxyz",
		"connection failed",
		"Skipped connectivity check.",
		"  1. Sign up or log in at:",
		"  Use existing key? [Y/n] ",
		"Setup complete!",
	} {
		assert.Contains(t, out, want)
	}
}
