package agent

// Reporter receives user-facing progress from a run. Implementations must
// not block for long; Spin is the only call that wraps blocking work.
type Reporter interface {
	Banner()
	ConfigSummary(task, startURL string, maxSteps int, model string)
	Step(step, maxSteps int, text string)
	ToolAction(name, summary string)
	TrimNotice(removed int, sizeMB float64, retry bool)
	EarlyStop()
	FinalAnswer(answer string)
	Error(msg string)
	Done()

	// Spin shows message while fn runs and returns fn's error. The
	// indicator is gone by the time Spin returns.
	Spin(message string, fn func() error) error
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Banner()                                   {}
func (NopReporter) ConfigSummary(string, string, int, string) {}
func (NopReporter) Step(int, int, string)                     {}
func (NopReporter) ToolAction(string, string)                 {}
func (NopReporter) TrimNotice(int, float64, bool)             {}
func (NopReporter) EarlyStop()                                {}
func (NopReporter) FinalAnswer(string)                        {}
func (NopReporter) Error(string)                              {}
func (NopReporter) Done()                                     {}

func (NopReporter) Spin(_ string, fn func() error) error {
	return fn()
}
