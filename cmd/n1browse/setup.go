package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/n1browse/pkg/config"
	"github.com/entrhq/n1browse/pkg/executor/console"
)

const setupSteps = 5

func newSetupCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup: credentials, Playwright driver, and connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := &wizard{
				deps: d,
				con:  d.newConsole(cmd.OutOrStdout(), d.stderr),
				in:   bufio.NewReader(cmd.InOrStdin()),
			}
			return w.run(cmd.Context())
		},
	}
}

// wizard walks through the setup steps, reading answers line by line.
type wizard struct {
	*deps
	con *console.Console
	in  *bufio.Reader
}

type credentialPrompt struct {
	key      string
	title    string
	found    string
	reuse    string
	steps    []string
	ask      string
	saved    string
	leaveOut string
}

var cdpPrompt = credentialPrompt{
	key:   config.EnvCDPURL,
	title: "Bright Data Scraping Browser",
	found: "Found existing Bright Data CDP URL",
	reuse: "Use existing URL?",
	steps: []string{
		"You need a Bright Data Scraping Browser zone.",
		"",
		"1. Sign up or log in at:",
		"   https://brightdata.com",
		"",
		"2. Go to the dashboard and create a new Scraping Browser zone.",
		"",
		"3. Copy the CDP WebSocket URL (starts with wss://).",
	},
	ask:      "Paste your Bright Data CDP URL:",
	saved:    "Bright Data CDP URL saved.",
	leaveOut: "YOUR_CDP_URL",
}

var apiKeyPrompt = credentialPrompt{
	key:   config.EnvAPIKey,
	title: "Yutori API Key",
	found: "Found existing Yutori API key",
	reuse: "Use existing key?",
	steps: []string{
		"You need a Yutori API key.",
		"",
		"1. Sign up or log in at:",
		"   https://yutori.com",
		"",
		"2. Navigate to API keys and create one.",
	},
	ask:      "Paste your Yutori API key:",
	saved:    "Yutori API key saved.",
	leaveOut: "YOUR_API_KEY",
}

func (w *wizard) run(ctx context.Context) error {
	w.con.Title("n1browse", "Setup Wizard")

	store, err := config.NewCredentialsStore(w.credentialsPath)
	if err != nil {
		w.con.Error(err.Error())
		return reported(err)
	}

	for i, p := range []credentialPrompt{cdpPrompt, apiKeyPrompt} {
		w.con.Section(i+1, setupSteps, p.title)
		if err := w.askCredential(store, p); err != nil {
			return err
		}
	}

	w.con.Section(3, setupSteps, "Save Configuration")
	if err := w.con.Spin("Writing credentials...", store.Save); err != nil {
		w.con.Error(fmt.Sprintf("Failed to save credentials: %v", err))
		return reported(err)
	}
	w.con.Success("Saved credentials", "to "+store.Path())

	w.con.Section(4, setupSteps, "Install Playwright")
	if err := w.con.Spin("Installing Playwright driver...", w.installDriver); err != nil {
		w.con.Error(fmt.Sprintf("Failed to install Playwright driver: %v", err))
		return reported(err)
	}
	w.con.Success("Playwright driver is ready.", "")

	w.con.Section(5, setupSteps, "Verify Connectivity")
	test, err := w.confirm("Test credentials now?", true)
	if err != nil {
		return err
	}
	if test {
		w.verify(ctx, store)
	} else {
		w.con.Hint("Skipped connectivity check.")
	}

	w.con.Panel("Setup complete!\n\nRun your first task:\nn1browse \"Search for latest news\"")
	return nil
}

func (w *wizard) askCredential(store *config.CredentialsStore, p credentialPrompt) error {
	existing, _ := store.Get(p.key)
	existing = strings.TrimSpace(existing)

	if existing != "" && existing != p.leaveOut {
		w.con.Success(p.found, config.Mask(existing))
		reuse, err := w.confirm(p.reuse, true)
		if err != nil {
			return err
		}
		if reuse {
			return nil
		}
	}

	for _, line := range p.steps {
		w.con.Line(line)
	}
	value, err := w.ask(p.ask)
	if err != nil {
		return err
	}
	store.Set(p.key, value)
	w.con.Success(p.saved, "")
	return nil
}

func (w *wizard) verify(ctx context.Context, store *config.CredentialsStore) {
	apiKey, _ := store.Get(config.EnvAPIKey)
	baseURL := w.baseURL()
	err := w.con.Spin("Testing Yutori API connection...", func() error {
		return w.pingModel(ctx, apiKey, baseURL)
	})
	if err != nil {
		w.con.Failure("Yutori API: connection failed. Check your API key.")
	} else {
		w.con.Success("Yutori API: connected", "")
	}

	cdpURL, _ := store.Get(config.EnvCDPURL)
	err = w.con.Spin("Testing Bright Data browser connection...", func() error {
		return w.probeBrowser(ctx, cdpURL)
	})
	if err != nil {
		w.con.Failure("Bright Data: connection failed. Check your CDP URL.")
	} else {
		w.con.Success("Bright Data: connected successfully", "")
	}
}

// baseURL resolves N1_BASE_URL from the process environment and ./.env the
// same way a run does.
func (w *wizard) baseURL() string {
	dotenv, _ := config.LoadDotEnv(config.DefaultDotEnvPath)
	return config.ResolveBaseURL(config.MergeEnv(w.environ(), dotenv))
}

// ask reads one trimmed line. Input ending without a newline still counts.
func (w *wizard) ask(question string) (string, error) {
	w.con.Prompt(question)
	line, err := w.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("setup aborted: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (w *wizard) confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		answer, err := w.ask(question + " " + hint)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		w.con.Hint("Please answer y or n.")
	}
}
