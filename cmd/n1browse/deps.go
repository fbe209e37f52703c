package main

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/entrhq/n1browse/pkg/config"
	"github.com/entrhq/n1browse/pkg/executor/console"
	"github.com/entrhq/n1browse/pkg/llm"
	"github.com/entrhq/n1browse/pkg/llm/openai"
	"github.com/entrhq/n1browse/pkg/llm/tokenizer"
	"github.com/entrhq/n1browse/pkg/logging"
	"github.com/entrhq/n1browse/pkg/tools/browser"
)

// deps are the process-level collaborators the commands use. Tests swap
// them for fakes.
type deps struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	environ         func() map[string]string
	credentialsPath string

	newConsole   func(out, spin io.Writer) *console.Console
	newLogger    func(component string) *logging.Logger
	newTokenizer func() *tokenizer.Tokenizer
	newProvider  func(cfg config.AgentConfig) (llm.Provider, error)
	newConnector func(cdpURL string) browser.Connector

	installDriver func() error
	pingModel     func(ctx context.Context, apiKey, baseURL string) error
	probeBrowser  func(ctx context.Context, cdpURL string) error
}

func defaultDeps() *deps {
	return &deps{
		stdin:           os.Stdin,
		stdout:          os.Stdout,
		stderr:          os.Stderr,
		environ:         config.Environ,
		credentialsPath: config.DefaultCredentialsPath,
		newConsole: func(out, spin io.Writer) *console.Console {
			if f, ok := spin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				return console.New(out, console.WithSpinner(spin))
			}
			return console.New(out)
		},
		newLogger: func(component string) *logging.Logger {
			// on error NewLogger still returns a stderr fallback
			l, _ := logging.NewLogger(component)
			return l
		},
		newTokenizer: func() *tokenizer.Tokenizer {
			tok, _ := tokenizer.New()
			return tok
		},
		newProvider: func(cfg config.AgentConfig) (llm.Provider, error) {
			return openai.NewProvider(cfg.APIKey(),
				openai.WithBaseURL(cfg.BaseURL()),
				openai.WithModel(cfg.Model()))
		},
		newConnector: func(cdpURL string) browser.Connector {
			return browser.NewCDPConnector(cdpURL)
		},
		installDriver: browser.InstallDriver,
		pingModel: func(ctx context.Context, apiKey, baseURL string) error {
			p, err := openai.NewProvider(apiKey, openai.WithBaseURL(baseURL))
			if err != nil {
				return err
			}
			return p.Ping(ctx)
		},
		probeBrowser: func(ctx context.Context, cdpURL string) error {
			h, err := browser.NewCDPConnector(cdpURL).Connect(ctx)
			if err != nil {
				return err
			}
			return h.Close()
		},
	}
}
