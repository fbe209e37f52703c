package console

import "fmt"

// Lines used by interactive commands such as setup.

// Title prints a boxed title with a muted subtitle.
func (c *Console) Title(title, subtitle string) {
	c.println(c.style.bannerBox.Render(c.style.brand.Render(title) + "  " + c.style.muted.Render(subtitle)))
}

// Section prints a numbered section header.
func (c *Console) Section(step, total int, title string) {
	c.println("\n" + c.style.step.Render(fmt.Sprintf("Step %d of %d", step, total)) + "  " + title + "\n")
}

// Line prints an indented plain line.
func (c *Console) Line(text string) {
	c.println("  " + text)
}

// Success prints an indented success line with an optional muted detail.
func (c *Console) Success(text, detail string) {
	line := "  " + c.style.success.Render(text)
	if detail != "" {
		line += "  " + c.style.muted.Render(detail)
	}
	c.println(line)
}

// Failure prints an indented error line.
func (c *Console) Failure(text string) {
	c.println("  " + c.style.err.Render(text))
}

// Hint prints an indented muted line.
func (c *Console) Hint(text string) {
	c.println("  " + c.style.muted.Render(text))
}

// Panel prints body in a success-bordered box.
func (c *Console) Panel(body string) {
	c.println("\n" + c.style.answerBox.Render(body))
}

// Prompt prints a question without a trailing newline.
func (c *Console) Prompt(question string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, "  "+question+" ")
}
