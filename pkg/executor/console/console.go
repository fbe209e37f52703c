// Package console renders agent progress to a terminal.
package console

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/entrhq/n1browse/pkg/agent"
)

// maxStepText is how many characters of assistant text a step line shows.
const maxStepText = 300

// Console writes progress to out and shows spinners on a separate writer.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	spinOut io.Writer
	animate bool
	style   styles
}

var _ agent.Reporter = (*Console)(nil)

// Option configures a Console.
type Option func(*Console)

// WithSpinner sends spinner frames to w. Without it Spin runs the work
// with no indicator.
func WithSpinner(w io.Writer) Option {
	return func(c *Console) {
		c.spinOut = w
		c.animate = w != nil
	}
}

// New creates a console writing to out.
func New(out io.Writer, opts ...Option) *Console {
	c := &Console{
		out:   out,
		style: newStyles(lipgloss.NewRenderer(out)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func (c *Console) Banner() {
	title := c.style.brand.Render("n1browse") + c.style.muted.Render("  Browser Agent")
	c.println(c.style.bannerBox.Render(title))
}

func (c *Console) ConfigSummary(task, startURL string, maxSteps int, model string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(c.style.muted).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return c.style.info.Padding(0, 1)
			}
			return c.style.text.Padding(0, 1)
		}).
		Rows(
			[]string{"Task", task},
			[]string{"Start URL", startURL},
			[]string{"Max steps", strconv.Itoa(maxSteps)},
			[]string{"Model", model},
		)
	c.println(t.Render() + "\n")
}

func (c *Console) Step(step, maxSteps int, text string) {
	if text == "" {
		text = "[no text]"
	}
	c.println(c.style.step.Render(fmt.Sprintf("Step %d/%d", step, maxSteps)) + "  " + c.style.text.Render(truncate(text, maxStepText)))
}

func (c *Console) ToolAction(name, summary string) {
	c.println("  " + c.style.info.Render("> "+name) + " " + summary)
}

func (c *Console) TrimNotice(removed int, sizeMB float64, retry bool) {
	prefix := "Trimmed"
	if retry {
		prefix = "Retrying after extra trim"
	}
	c.println("  " + c.style.warning.Render(fmt.Sprintf("%s %d old screenshot(s); payload ~%.2f MB", prefix, removed, sizeMB)))
}

func (c *Console) EarlyStop() {
	c.println("\n" + c.style.success.Render("Early stop:") + " sufficient information collected.\n")
}

func (c *Console) FinalAnswer(answer string) {
	c.println("\n" + c.style.success.Render("Final Answer") + "\n" + c.style.answerBox.Render(answer) + "\n")
}

func (c *Console) Error(msg string) {
	c.println(c.style.err.Render("Error") + "\n" + c.style.errorBox.Render(c.style.err.Render(msg)))
}

func (c *Console) Done() {
	c.println(c.style.success.Render("Done.") + "\n")
}

// truncate cuts s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
