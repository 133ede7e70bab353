package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// Exit codes shared by the dataset commands.
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitInvalid = 10
)

// ValidateOptions defines available flags for the validate command.
type ValidateOptions struct {
	File       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// ValidateSummary describes the JSON response for validate.
type ValidateSummary struct {
	OK          bool     `json:"ok"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Merchants   []string `json:"merchants,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// ValidateCommand decodes a dataset file and reports whether it would load.
func ValidateCommand(ctx context.Context, opts ValidateOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if strings.TrimSpace(opts.File) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "validate: --file is required")
		return ExitUsage
	}
	raw, err := dataset.FileSource{Path: opts.File}.Fetch(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "validate: %v\n", err)
		return ExitUsage
	}

	summary := ValidateSummary{OK: true, Fingerprint: dataset.Fingerprint(raw)}
	doc, err := dataset.Decode(raw)
	if err != nil {
		summary = ValidateSummary{Error: err.Error()}
	} else {
		summary.Merchants = doc.Merchants
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "validate: encode json: %v\n", err)
			return ExitUsage
		}
	} else {
		renderValidateHuman(opts.Stdout, summary)
	}
	if !summary.OK {
		return ExitInvalid
	}
	return ExitOK
}

func renderValidateHuman(w io.Writer, s ValidateSummary) {
	if !s.OK {
		_, _ = fmt.Fprintf(w, "INVALID: %s\n", s.Error)
		return
	}
	_, _ = fmt.Fprintf(w, "OK: %d merchant(s) [%s], fingerprint %s\n", len(s.Merchants), strings.Join(s.Merchants, ", "), s.Fingerprint)
}
