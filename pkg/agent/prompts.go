package agent

import (
	"fmt"
	"strings"
)

// SystemPrompt opens every conversation.
var SystemPrompt = strings.Join([]string{
	"You are a web research and browsing agent.",
	"Use tools only when a specific missing fact is required.",
	"Stop as soon as the user task can be answered with reasonable confidence.",
	"Do not perform redundant confirmation passes once the key answer is established.",
	"Before every tool call, ask: what exact missing fact will this retrieve?",
	"If no concrete missing fact exists, return a final answer and do not call tools.",
	"When you see '[Steps remaining: N]' in a message and N <= 3, stop browsing immediately " +
		"and compile all gathered information into a complete final answer without calling any tools.",
}, "\n")

// SufficiencySystemPrompt instructs the judge model.
var SufficiencySystemPrompt = strings.Join([]string{
	"You are a strict answer sufficiency checker.",
	"Decide if the draft already answers the task well enough to stop browsing.",
	"Return ONLY JSON with keys: is_sufficient (bool), confidence (0..1), final_answer (string), missing (string).",
	"If sufficient, final_answer must be complete and concise.",
	"If not sufficient, set missing to the key unresolved gap.",
}, "\n")

func sufficiencyUserPrompt(task, draft string) string {
	return fmt.Sprintf("TASK:\n%s\n\nDRAFT_ANSWER:\n%s\n\nShould the agent stop now?", task, draft)
}

func finalizeInstruction(task string) string {
	return "You have reached the maximum number of browsing steps. " +
		"Do NOT call any tools. Based solely on everything you have observed so far, " +
		"compile and return a complete final answer to the original task:\n\n" + task
}

// taskMessage is the text of the opening user turn.
func taskMessage(remaining int, task string) string {
	return fmt.Sprintf("[Steps remaining: %d]\n%s", remaining, task)
}

// observation is the text of a tool message.
func observation(remaining int, url string) string {
	return fmt.Sprintf("[Steps remaining: %d]\nCurrent URL: %s", remaining, url)
}
