//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestConfig holds configuration for integration tests. HARVEST_BASE_URL is
// passed through to the binary unchanged.
type TestConfig struct {
	APIKey      string
	HarvestPath string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIKey:      os.Getenv("HARVEST_API_KEY"),
		HarvestPath: harvestPath(),
		Verbose:     os.Getenv("HARVEST_VERBOSE") == "true",
	}
}

func harvestPath() string {
	if path := os.Getenv("HARVEST_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../harvest", "./harvest", "../harvest"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "harvest"
}

// SkipIfMissingConfig skips the test without a key or a binary.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.APIKey == "" {
		t.Skip("HARVEST_API_KEY not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.HarvestPath); err != nil {
		t.Skipf("harvest binary not found at %s, skipping integration test", config.HarvestPath)
	}
}

// CommandRunner runs the harvest binary with an isolated config file.
type CommandRunner struct {
	config     *TestConfig
	t          *testing.T
	configFile string
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		t:          t,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
	}
}

// Run executes a harvest command and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a harvest command with stdin input.
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	cmd := exec.Command(runner.config.HarvestPath, args...)
	cmd.Env = append(os.Environ(), "HARVEST_API_KEY="+runner.config.APIKey)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.HarvestPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// AssertJSONOutput checks that output is valid JSON.
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	var value any
	require.NoError(t, json.Unmarshal([]byte(output), &value), "output is not JSON: %s", output)
}

// AssertYAMLOutput checks that output is valid YAML.
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	var value any
	require.NoError(t, yaml.Unmarshal([]byte(output), &value), "output is not YAML: %s", output)
}
