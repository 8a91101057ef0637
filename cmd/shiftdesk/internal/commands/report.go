package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/shiftdesk/internal/report"
	"github.com/wolfeidau/shiftdesk/internal/ssmparams"
)

type ReportCmd struct {
	APIKey         string `help:"Gemini API key, overrides the stored key" env:"GEMINI_API_KEY" default:""`
	APIKeySSMParam string `help:"SSM parameter holding the Gemini API key" env:"SHIFTDESK_API_KEY_SSM_PARAM" default:""`
	APIKeyFile     string `help:"file holding the Gemini API key" default:""`
	Model          string `help:"Gemini model" default:"gemini-2.5-flash"`
	BaseURL        string `help:"Gemini API base URL" default:"https://generativelanguage.googleapis.com"`
}

func (r *ReportCmd) Run(ctx context.Context, globals *Globals) error {
	apiKey, err := r.resolveAPIKey(ctx)
	if err != nil {
		return err
	}

	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	gen := report.NewGeminiClient(
		report.WithModel(r.Model),
		report.WithBaseURL(r.BaseURL),
		report.WithClock(app.Service.Store().Now),
	)

	text, res, err := app.Service.ShiftReport(ctx, gen, apiKey)
	if err := check("shift report", res, err); err != nil {
		return err
	}

	fmt.Fprintln(globals.out(), text)
	return nil
}

func (r *ReportCmd) resolveAPIKey(ctx context.Context) (string, error) {
	if r.APIKey != "" {
		return r.APIKey, nil
	}

	cfg := ssmparams.Config{APIKeyPath: r.APIKeyFile, APIKeySSM: r.APIKeySSMParam}
	if !cfg.Enabled() {
		return "", nil
	}
	return ssmparams.LoadAPIKey(ctx, cfg)
}
