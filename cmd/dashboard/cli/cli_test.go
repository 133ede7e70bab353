package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apex-analytics/apex-dashboard/jobs"
)

const canonicalFile = "../../../internal/dataset/testdata/canonical.json"

func TestValidateCommandJSONSuccess(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	exitCode := ValidateCommand(context.Background(), ValidateOptions{
		File:       canonicalFile,
		JSONOutput: true,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	require.Equal(t, ExitOK, exitCode, stderr.String())

	var summary ValidateSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.True(t, summary.OK)
	assert.Equal(t, []string{"default"}, summary.Merchants)
	assert.Len(t, summary.Fingerprint, 64)
}

func TestValidateCommandInvalidDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"kpis": {"total_transactions": -1}}`), 0o600))

	stdout := new(bytes.Buffer)
	exitCode := ValidateCommand(context.Background(), ValidateOptions{File: path, Stdout: stdout, Stderr: new(bytes.Buffer)})
	assert.Equal(t, ExitInvalid, exitCode)
	assert.Contains(t, stdout.String(), "INVALID")
}

func TestValidateCommandUsage(t *testing.T) {
	stderr := new(bytes.Buffer)
	assert.Equal(t, ExitUsage, ValidateCommand(context.Background(), ValidateOptions{Stdout: new(bytes.Buffer), Stderr: stderr}))
	assert.Contains(t, stderr.String(), "--file is required")

	stderr.Reset()
	assert.Equal(t, ExitUsage, ValidateCommand(context.Background(), ValidateOptions{File: "missing.json", Stdout: new(bytes.Buffer), Stderr: stderr}))
}

func TestSummaryCommand(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	exitCode := SummaryCommand(context.Background(), SummaryOptions{File: canonicalFile, Stdout: stdout, Stderr: stderr})
	require.Equal(t, ExitOK, exitCode, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Estabelecimento: default")
	assert.Contains(t, out, "80% (dentro da meta)")
	assert.Contains(t, out, "ABECS-51")
	assert.NotContains(t, out, "ABECS-91")
	assert.Contains(t, out, "+3 erro(s) omitido(s)")
	assert.Contains(t, out, "mastercard")
}

func TestSummaryCommandAllErrors(t *testing.T) {
	stdout := new(bytes.Buffer)
	exitCode := SummaryCommand(context.Background(), SummaryOptions{File: canonicalFile, All: true, Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, ExitOK, exitCode)
	assert.Contains(t, stdout.String(), "ABECS-91")
	assert.NotContains(t, stdout.String(), "omitido")
}

func TestSummaryCommandUnknownMerchant(t *testing.T) {
	stderr := new(bytes.Buffer)
	exitCode := SummaryCommand(context.Background(), SummaryOptions{File: canonicalFile, Merchant: "nope", Stdout: new(bytes.Buffer), Stderr: stderr})
	assert.Equal(t, ExitUsage, exitCode)
	assert.Contains(t, stderr.String(), "merchant not found")
}

func TestJobsTrigger(t *testing.T) {
	mr := miniredis.RunT(t)
	jobsCLI, err := NewJobsCLI(mr.Addr())
	require.NoError(t, err)
	defer func() { _ = jobsCLI.Close() }()

	info, err := jobsCLI.Trigger(context.Background(), jobs.TaskDatasetRefresh, true)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskDatasetRefresh, info.Type)
	assert.Equal(t, jobs.QueueDefault, info.Queue)
	assert.NotEmpty(t, info.ID)
	assert.JSONEq(t, `{"reason":"cli","persist":true}`, string(info.Payload))

	_, err = jobsCLI.Trigger(context.Background(), "mail:send", false)
	assert.Error(t, err)
}

func TestNewJobsCLIRequiresAddr(t *testing.T) {
	_, err := NewJobsCLI("")
	assert.Error(t, err)
}
