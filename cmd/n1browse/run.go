package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/n1browse/pkg/agent"
	"github.com/entrhq/n1browse/pkg/config"
	"github.com/entrhq/n1browse/pkg/executor/summary"
)

const (
	defaultStartURL = "https://www.google.com"
	defaultMaxSteps = 30
)

type runOptions struct {
	url                 string
	maxSteps            int
	screenshotFormat    string
	jpegQuality         int
	screenshotTimeoutMS int
	model               string
	apiKey              string
	cdpURL              string
	envFile             string
	noSufficiencyCheck  bool
	summaryPath         string
}

func newRunCmd(d *deps) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run TASK",
		Short: "Run the browser agent on a task",
		Example: `  n1browse "What is the weather in Paris today?"
  n1browse run --url https://news.ycombinator.com --max-steps 10 "Summarize the top story"`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.validate(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, d, opts, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", defaultStartURL, "Initial URL to open before the agent loop starts")
	f.IntVar(&opts.maxSteps, "max-steps", defaultMaxSteps, "Maximum number of tool-using iterations")
	f.StringVar(&opts.screenshotFormat, "screenshot-format", config.DefaultScreenshotFormat, "Screenshot format sent to the model (jpeg or png)")
	f.IntVar(&opts.jpegQuality, "jpeg-quality", config.DefaultJPEGQuality, "JPEG quality used when --screenshot-format=jpeg (1-100)")
	f.IntVar(&opts.screenshotTimeoutMS, "screenshot-timeout-ms", config.DefaultScreenshotTimeoutMS, "Timeout for page screenshots in milliseconds")
	f.StringVar(&opts.model, "model", "", "Model id (env "+config.EnvModel+", default "+config.DefaultModel+")")
	f.StringVar(&opts.apiKey, "yutori-api-key", "", "Yutori API key (env "+config.EnvAPIKey+")")
	f.StringVar(&opts.cdpURL, "brd-cdp-url", "", "Bright Data Scraping Browser CDP WebSocket URL (env "+config.EnvCDPURL+")")
	f.StringVar(&opts.envFile, "env-file", "", "Path to a .env file (default ./.env)")
	f.BoolVar(&opts.noSufficiencyCheck, "no-sufficiency-check", false, "Never stop early on a sufficient draft answer")
	f.StringVar(&opts.summaryPath, "summary", "", "Write a YAML run summary to this file")

	return cmd
}

func (o *runOptions) validate(cmd *cobra.Command) error {
	if o.maxSteps < 1 {
		return fmt.Errorf("--max-steps must be at least 1, got %d", o.maxSteps)
	}
	if cmd.Flags().Changed("jpeg-quality") && (o.jpegQuality < 1 || o.jpegQuality > 100) {
		return fmt.Errorf("--jpeg-quality must be between 1 and 100, got %d", o.jpegQuality)
	}
	if cmd.Flags().Changed("screenshot-timeout-ms") && o.screenshotTimeoutMS < 1 {
		return fmt.Errorf("--screenshot-timeout-ms must be at least 1, got %d", o.screenshotTimeoutMS)
	}
	if cmd.Flags().Changed("screenshot-format") {
		o.screenshotFormat = strings.ToLower(strings.TrimSpace(o.screenshotFormat))
		if o.screenshotFormat != "jpeg" && o.screenshotFormat != "png" {
			return fmt.Errorf("--screenshot-format must be jpeg or png, got %q", o.screenshotFormat)
		}
	}
	return nil
}

// overrides turns explicitly set flags into config overrides, leaving the
// rest to the environment.
func (o *runOptions) overrides(cmd *cobra.Command) config.Overrides {
	var ov config.Overrides
	changed := cmd.Flags().Changed

	if changed("yutori-api-key") {
		ov.APIKey = &o.apiKey
	}
	if changed("brd-cdp-url") {
		ov.CDPURL = &o.cdpURL
	}
	if changed("model") {
		ov.Model = &o.model
	}
	if changed("screenshot-format") {
		ov.ScreenshotFormat = &o.screenshotFormat
	}
	if changed("jpeg-quality") {
		ov.JPEGQuality = &o.jpegQuality
	}
	if changed("screenshot-timeout-ms") {
		ov.ScreenshotTimeoutMS = &o.screenshotTimeoutMS
	}
	if o.noSufficiencyCheck {
		disabled := false
		ov.EnableSufficiencyCheck = &disabled
	}
	return ov
}

// loadConfig merges the process environment, stored credentials, .env and
// flags into an AgentConfig. Stored credentials take precedence over .env.
func loadConfig(cmd *cobra.Command, d *deps, o *runOptions) (config.AgentConfig, error) {
	envPath := o.envFile
	if envPath == "" {
		envPath = config.DefaultDotEnvPath
	}
	dotenv, err := config.LoadDotEnv(envPath)
	if err != nil {
		return config.AgentConfig{}, err
	}

	var creds []byte
	if store, err := config.NewCredentialsStore(d.credentialsPath); err == nil {
		creds = store.Raw()
	}
	env := config.MergeEnv(d.environ(), config.CredentialsEnv(creds), dotenv)

	return config.Resolve(env, creds, o.overrides(cmd))
}

func runTask(cmd *cobra.Command, d *deps, o *runOptions, task string) error {
	con := d.newConsole(cmd.OutOrStdout(), d.stderr)

	cfg, err := loadConfig(cmd, d, o)
	if err != nil {
		con.Error(err.Error())
		return reported(err)
	}

	log := d.newLogger("agent")
	defer log.Close()

	provider, err := d.newProvider(cfg)
	if err != nil {
		con.Error(err.Error())
		return reported(err)
	}

	a := agent.NewAgent(cfg, provider, d.newConnector(cfg.CDPURL()),
		agent.WithReporter(con),
		agent.WithLogger(log),
		agent.WithTokenizer(d.newTokenizer()),
	)

	params := agent.RunParams{Task: task, StartURL: o.url, MaxSteps: o.maxSteps}
	result, runErr := a.Run(cmd.Context(), params)

	if o.summaryPath != "" {
		if err := summary.Write(o.summaryPath, summary.FromResult(params, cfg.Model(), result, runErr)); err != nil {
			log.Errorf("Failed to write run summary: %v", err)
			con.Error(err.Error())
			if runErr == nil {
				return reported(err)
			}
		}
	}

	if runErr != nil {
		con.Error(runErr.Error())
		return reported(runErr)
	}
	return nil
}
