package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/actionreport/internal/actions"
	"github.com/mbd888/actionreport/internal/config"
)

const sampleReport = `{
  "Actions": [
    {"Id": "A1", "EventDate": "2025-08-15", "Payout": "10.50", "Amount": "105.00", "CreatorId": "X"},
    {"Id": "A2", "EventDate": "2025-08-20", "Payout": "0", "Amount": "20.00", "CreatorId": "Y"},
    {"Id": "A3", "EventDate": "2025-07-01", "Payout": "5.00", "Amount": "50.00", "CreatorId": "X"},
    {"Id": "A4", "EventDate": "last tuesday", "Payout": "7.00", "CreatorId": "X"}
  ]
}`

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ACTIONS_FILE", "DATABASE_URL", "ACTIONS_TABLE", "ACTIONS_SUBJECT_FIELD",
		"REPORT_START", "REPORT_END", "REPORT_SUBJECT_ID", "REPORT_SAMPLE_SIZE",
		"REPORT_TIMEZONE", "LOG_LEVEL", "LOG_FORMAT", "METRICS_FILE",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, old) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func writeReport(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "actions.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_DateRange(t *testing.T) {
	isolateEnv(t)
	path := writeReport(t, sampleReport)

	out, _, err := execute(t, "", "run", path, "--start", "2025-08-11", "--end", "2025-09-10")
	require.NoError(t, err)

	assert.Contains(t, out, "Total actions:          4")
	assert.Contains(t, out, "Matched actions:        2")
	assert.Contains(t, out, "Commissionable actions: 1")
	assert.Contains(t, out, "Total commission:       10.50")
	assert.Contains(t, out, "1. A1 date=2025-08-15 payout=10.50 amount=105.00")
	assert.Contains(t, out, "2. A2 date=2025-08-20 payout=0 amount=20.00")
}

func TestRun_SubjectFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("ACTIONS_FILE", writeReport(t, sampleReport))
	t.Setenv("REPORT_SUBJECT_ID", "X")
	t.Setenv("REPORT_SAMPLE_SIZE", "2")

	out, _, err := execute(t, "", "run")
	require.NoError(t, err)

	assert.Contains(t, out, "Matched actions:        3")
	assert.Contains(t, out, "Commissionable actions: 3")
	assert.Contains(t, out, "Total commission:       22.50")
	assert.Contains(t, out, "First 2 matched actions")
	assert.NotContains(t, out, "A4")
}

func TestRun_FlagOverridesEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("REPORT_SUBJECT_ID", "X")

	out, _, err := execute(t, "", "run", writeReport(t, sampleReport), "--subject", "Y")
	require.NoError(t, err)
	assert.Contains(t, out, "Matched actions:        1")
	assert.Contains(t, out, "Total commission:       0.00")
}

func TestRun_Stdin(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, sampleReport, "run", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Total actions:          4")
	assert.Contains(t, out, "Matched actions:        4")
}

func TestRun_MissingActionsIsEmptyReport(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, "", "run", writeReport(t, `{"@total": "0"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Total actions:          0")
	assert.Contains(t, out, "Total commission:       0.00")
}

func TestRun_InputErrors(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "", "run", writeReport(t, `{"Actions": "oops"}`))
	var inErr *actions.InputError
	require.ErrorAs(t, err, &inErr)

	_, _, err = execute(t, "", "run")
	assert.ErrorIs(t, err, actions.ErrInputMissing)

	_, _, err = execute(t, "", "run", filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, actions.ErrInputMissing)
}

func TestOpenSource_RequiresInput(t *testing.T) {
	_, _, _, err := openSource(&config.Config{}, nil)
	assert.ErrorIs(t, err, actions.ErrInputMissing)

	src, name, closeSource, err := openSource(&config.Config{ActionsFile: "-"}, strings.NewReader(sampleReport))
	require.NoError(t, err)
	defer closeSource()
	assert.Equal(t, "file", name)
	assert.IsType(t, &actions.FileSource{}, src)
}

func TestRun_InvalidOptions(t *testing.T) {
	isolateEnv(t)
	path := writeReport(t, sampleReport)

	_, _, err := execute(t, "", "run", path, "--start", "2025-09-11", "--end", "2025-09-10")
	assert.ErrorContains(t, err, "after end")

	_, _, err = execute(t, "", "run", path, "--sample", "-2")
	assert.ErrorContains(t, err, "must not be negative")

	_, _, err = execute(t, "", "run", path, "--timezone", "Nowhere/Special")
	assert.ErrorContains(t, err, "REPORT_TIMEZONE")
}

func TestRun_FlagsRepairInvalidEnv(t *testing.T) {
	isolateEnv(t)
	path := writeReport(t, sampleReport)
	t.Setenv("REPORT_TIMEZONE", "Bad/Zone")
	t.Setenv("REPORT_SAMPLE_SIZE", "-1")
	t.Setenv("REPORT_START", "2025-09-11")
	t.Setenv("REPORT_END", "2025-09-10")

	_, _, err := execute(t, "", "run", path)
	require.Error(t, err)

	out, _, err := execute(t, "", "run", path,
		"--timezone", "UTC", "--sample", "1", "--start", "2025-08-11")
	require.NoError(t, err)
	assert.Contains(t, out, "Matched actions:        2")
	assert.Contains(t, out, "First 1 matched actions")
}

func TestRun_DebugLogsSkippedRecords(t *testing.T) {
	isolateEnv(t)

	_, logs, err := execute(t, "", "run", writeReport(t, sampleReport),
		"--start", "2025-08-11", "--end", "2025-09-10", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, logs, "unparseable event date")
	assert.Contains(t, logs, "run_id=run_")
	assert.Contains(t, logs, "report complete")
}

func TestRun_MetricsFile(t *testing.T) {
	isolateEnv(t)
	metricsPath := filepath.Join(t.TempDir(), "actionreport.prom")

	_, _, err := execute(t, "", "run", writeReport(t, sampleReport), "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "actionreport_records_total")
	assert.Contains(t, string(data), "actionreport_commission 22.5")
	assert.NotContains(t, string(data), "actionreport_commission_total")
}

func TestRun_CustomSubjectField(t *testing.T) {
	isolateEnv(t)
	doc := `{"Actions": [{"EventDate": "2025-08-15", "Payout": "3", "MediaPartnerId": "mp-1"}]}`

	out, _, err := execute(t, "", "run", writeReport(t, doc), "--subject-field", "MediaPartnerId", "--subject", "mp-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Matched actions:        1")
	assert.Contains(t, out, "Total commission:       3.00")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "actionreport dev")
}
