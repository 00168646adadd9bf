package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/javajack/diaryfill"
)

// writeDiary saves a two-row May diary where only V3 can be filled.
func writeDiary(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "日誌5月"))
	for cell, v := range map[string]any{
		"A1": "日付",
		"A2": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		"V2": 10,
		"A3": time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, f.SetCellValue("日誌5月", cell, v))
	}
	path := filepath.Join(t.TempDir(), "diary.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func readCell(t *testing.T, path, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("日誌5月", cell)
	require.NoError(t, err)
	return v
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestFill_InPlace(t *testing.T) {
	path := writeDiary(t)

	out, err := execute(t, "fill", path, "--today", "2024-05-20")
	require.NoError(t, err)
	assert.Equal(t, "日誌5月 (primary, today 2024-05-20): 1 cells filled, 2 rows evaluated, 0 holidays skipped\n", out)
	assert.Equal(t, "10", readCell(t, path, "V3"))

	_, err = execute(t, "fill", path, "--today", "2024-05-20")
	assert.ErrorIs(t, err, errNothingFilled, "second run has nothing left to fill")
}

func TestFill_Output(t *testing.T) {
	path := writeDiary(t)
	dst := filepath.Join(t.TempDir(), "out.xlsx")

	_, err := execute(t, "fill", path, "-o", dst, "--today", "2024-05-20")
	require.NoError(t, err)
	assert.Equal(t, "10", readCell(t, dst, "V3"))
	assert.Empty(t, readCell(t, path, "V3"), "source is untouched")
}

func TestFill_DryRunJSON(t *testing.T) {
	path := writeDiary(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	out, err := execute(t, "fill", path, "--today", "2024-05-20", "--dry-run", "--json")
	require.NoError(t, err)

	var sum diaryfill.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, "日誌5月", sum.Sheet)
	assert.Equal(t, 1, sum.ModifiedCount)
	assert.True(t, sum.DryRun)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFill_Errors(t *testing.T) {
	path := writeDiary(t)

	_, err := execute(t, "fill", path, "--today", "20/05/2024")
	assert.ErrorContains(t, err, "invalid --today")

	_, err = execute(t, "fill", filepath.Join(t.TempDir(), "missing.xlsx"))
	var storageErr *diaryfill.StorageError
	assert.ErrorAs(t, err, &storageErr)

	_, err = execute(t, "fill")
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	path := writeDiary(t)

	out, err := execute(t, "describe", path, "--today", "2024-05-20")
	require.NoError(t, err)
	assert.Contains(t, out, "filled: V3=10")
	assert.Contains(t, out, "1 cells to fill")
	assert.Empty(t, readCell(t, path, "V3"))
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)

	path := writeDiary(t)
	out, err = execute(t, "validate", path, "--today", "2024-06-20")
	require.NoError(t, err)
	assert.Contains(t, out, "[WARN] sheet:")
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diaryfill.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  format: xml\n"), 0o644))

	_, err := execute(t, "--config", path, "validate")
	assert.ErrorContains(t, err, "invalid config")

	require.NoError(t, os.WriteFile(path, []byte("diary:\n  target_columns: [\"1A\"]\n"), 0o644))
	out, err := execute(t, "--config", path, "validate")
	assert.Error(t, err)
	assert.Contains(t, out, "[ERROR]")
}

func TestRunServer_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv, ln, zap.NewNop()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
