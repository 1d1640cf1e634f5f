package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/exo-habitability/pkg/pipeline"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("EXO_DATABASE_PATH", "")
	t.Setenv("EXO_CACHE_POLICY", "presence")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "console")
	return dir
}

func TestCacheClear(t *testing.T) {
	dir := setupEnv(t)
	cache := filepath.Join(dir, "clean.csv")
	require.NoError(t, os.WriteFile(cache, []byte("x"), 0o644))

	out, err := execute(t, "cache", "clear", "--cache", cache)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed "+cache)
	assert.NoFileExists(t, cache)

	out, err = execute(t, "cache", "clear", "--cache", cache)
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshot at")
}

func TestRunMissingSourceFails(t *testing.T) {
	dir := setupEnv(t)

	_, err := execute(t, "run",
		"--input", filepath.Join(dir, "missing.csv"),
		"--cache", filepath.Join(dir, "clean.csv"),
		"--output", filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source file not found")
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestInvalidCachePolicyFlag(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "cache", "clear", "--cache-policy", "sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cache policy")
}

func TestHistoryRequiresStore(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database store is disabled")
}

func TestCachePolicyFlagOverridesInvalidEnv(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("EXO_CACHE_POLICY", "always")

	_, err := execute(t, "cache", "clear", "--cache", filepath.Join(dir, "clean.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cache policy")

	out, err := execute(t, "cache", "clear", "--cache", filepath.Join(dir, "clean.csv"), "--cache-policy", "fingerprint")
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshot at")
}

func TestRunPrintsDataIssues(t *testing.T) {
	dir := setupEnv(t)
	input := filepath.Join(dir, "ps.csv")
	source := "pl_name,hostname,pl_orbper,pl_orbsmax,pl_eqt,st_teff,st_rad,sy_dist,pl_rade,pl_bmasse\n" +
		"TRAPPIST-1 e,TRAPPIST-1,6.1,0.029,251,2566,0.12,12.43,0.92,0.69\n" +
		"Bad b,Bad,abc,-1,,5000,0.8,50,1,1\n"
	require.NoError(t, os.WriteFile(input, []byte(source), 0o644))

	out, err := execute(t, "run",
		"--input", input,
		"--cache", filepath.Join(dir, "clean.csv"),
		"--output", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Contains(t, out, "TRAPPIST-1 e")
	assert.Contains(t, out, "RowLevel")
	assert.Contains(t, out, "NumericDomain")
	assert.Contains(t, out, "Bad b")
}

func TestExitCode(t *testing.T) {
	dir := setupEnv(t)

	_, err := execute(t, "run",
		"--input", filepath.Join(dir, "missing.csv"),
		"--cache", filepath.Join(dir, "clean.csv"),
		"--output", filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.True(t, pipeline.IsFatal(err))
	assert.Equal(t, 2, exitCode(err))

	assert.Equal(t, 1, exitCode(errors.New("snapshot does not match a fresh build")))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
