package commands_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/harvest-client/cmd/harvest/commands"
	"github.com/fivetwenty-io/harvest-client/internal/constants"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
	"github.com/fivetwenty-io/harvest-client/pkg/harvestclient"
)

type seenRequest struct {
	Method     string
	Path       string
	Query      string
	OnBehalfOf string
	Body       string
}

type apiStub struct {
	*httptest.Server

	mu       sync.Mutex
	requests []seenRequest
}

func (s *apiStub) seen() []seenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]seenRequest(nil), s.requests...)
}

// setupCLI resets viper and points the CLI at a stub API and a temporary config file.
func setupCLI(t *testing.T, handler http.HandlerFunc) *apiStub {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	stub := &apiStub{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)

		stub.mu.Lock()
		stub.requests = append(stub.requests, seenRequest{
			Method:     request.Method,
			Path:       request.URL.Path,
			Query:      request.URL.RawQuery,
			OnBehalfOf: request.Header.Get(constants.HeaderOnBehalfOf),
			Body:       string(body),
		})
		stub.mu.Unlock()

		handler(writer, request)
	}))
	t.Cleanup(stub.Close)

	viper.SetConfigFile(filepath.Join(t.TempDir(), "config.yml"))
	viper.Set("api_key", "test-key")
	viper.Set("base_url", stub.URL)
	viper.Set("output", constants.FormatJSON)

	return stub
}

func jsonHandler(body string) http.HandlerFunc {
	return func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(writer, body)
	}
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	client, err := harvestclient.New(&harvest.Config{BaseURL: "https://api.test/v1"})
	require.NoError(t, err)

	tests := []struct {
		path string
		url  string
	}{
		{"candidates", "https://api.test/v1/candidates"},
		{"/candidates/", "https://api.test/v1/candidates"},
		{"candidates/42", "https://api.test/v1/candidates/42"},
		{"candidates/42/activity_feed", "https://api.test/v1/candidates/42/activity_feed"},
		{"jobs/7/openings/3", "https://api.test/v1/jobs/7/openings/3"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			resource, err := commands.ResolvePath(client, tt.path)
			require.NoError(t, err)

			got, err := resource.URL()
			require.NoError(t, err)
			assert.Equal(t, tt.url, got)
		})
	}

	_, err = commands.ResolvePath(client, "candidates//notes")
	require.ErrorIs(t, err, constants.ErrInvalidPath)

	_, err = commands.ResolvePath(client, "a/b/c/d/e")
	require.ErrorIs(t, err, constants.ErrInvalidPath)

	_, err = commands.ResolvePath(client, "spaceships")
	require.ErrorIs(t, err, harvest.ErrEndpointNotFound)

	_, err = commands.ResolvePath(client, "candidates/42/spaceships")
	require.ErrorIs(t, err, harvest.ErrEndpointNotFound)
}

func TestGetCommand(t *testing.T) {
	stub := setupCLI(t, jsonHandler(`[{"id": 1, "name": "Ada"}]`))

	out, err := execute(t, commands.NewGetCommand(), "", "candidates", "--param", "per_page=2")
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id": 1, "name": "Ada"}]`, out)
	assert.Contains(t, out, "\n  {")

	requests := stub.seen()
	require.Len(t, requests, 1)
	assert.Equal(t, "/candidates", requests[0].Path)
	assert.Equal(t, "per_page=2", requests[0].Query)
}

func TestGetCommandAll(t *testing.T) {
	var stub *apiStub

	stub = setupCLI(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Query().Get("page") == "" {
			writer.Header().Set("Link", fmt.Sprintf(`<%s/candidates?page=2>; rel="next"`, stub.URL))
			_, _ = io.WriteString(writer, `[{"id": 1}]`)

			return
		}

		_, _ = io.WriteString(writer, `[{"id": 2}]`)
	})

	out, err := execute(t, commands.NewGetCommand(), "", "candidates", "--all")
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id": 1}, {"id": 2}]`, out)
	assert.Len(t, stub.seen(), 2)
}

func TestGetCommandLast(t *testing.T) {
	var stub *apiStub

	stub = setupCLI(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Query().Get("page") == "" {
			writer.Header().Set("Link", fmt.Sprintf(`<%s/jobs?page=9>; rel="last"`, stub.URL))
			_, _ = io.WriteString(writer, `[{"id": 1}]`)

			return
		}

		_, _ = io.WriteString(writer, `[{"id": 90}]`)
	})

	out, err := execute(t, commands.NewGetCommand(), "", "jobs", "--last")
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id": 90}]`, out)
}

func TestGetCommandErrors(t *testing.T) {
	setupCLI(t, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	})

	_, err := execute(t, commands.NewGetCommand(), "", "candidates/404")
	require.ErrorIs(t, err, harvest.ErrNotFound)

	_, err = execute(t, commands.NewGetCommand(), "", "candidates", "--all", "--last")
	require.ErrorIs(t, err, constants.ErrConflictingFlags)

	_, err = execute(t, commands.NewGetCommand(), "", "candidates", "--param", "=x")
	require.ErrorIs(t, err, harvest.ErrInvalidParam)

	viper.Set("api_key", "")

	_, err = execute(t, commands.NewGetCommand(), "", "candidates")
	require.ErrorIs(t, err, constants.ErrNoAPIKey)
}

func TestGetCommandOutputFormats(t *testing.T) {
	setupCLI(t, jsonHandler(`[{"name": "Ada", "id": 1}]`))

	viper.Set("output", constants.FormatTable)

	out, err := execute(t, commands.NewGetCommand(), "", "candidates")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
	assert.Less(t, strings.Index(strings.ToLower(out), "id"), strings.Index(strings.ToLower(out), "name"))

	viper.Set("output", constants.FormatYAML)

	out, err = execute(t, commands.NewGetCommand(), "", "candidates")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Ada")

	viper.Set("output", "xml")

	_, err = execute(t, commands.NewGetCommand(), "", "candidates")
	require.ErrorIs(t, err, constants.ErrUnsupportedFormat)
}

func TestPostCommand(t *testing.T) {
	stub := setupCLI(t, jsonHandler(`{"id": 5}`))
	viper.Set("on_behalf_of", "77")

	out, err := execute(t, commands.NewPostCommand(), "", "candidates", "--data", `{"first_name": "Ada"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 5}`, out)

	requests := stub.seen()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "77", requests[0].OnBehalfOf)
	assert.JSONEq(t, `{"first_name": "Ada"}`, requests[0].Body)
}

func TestPostCommandData(t *testing.T) {
	stub := setupCLI(t, jsonHandler(`{}`))
	viper.Set("on_behalf_of", "77")

	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"from": "file"}`), 0o600))

	_, err := execute(t, commands.NewPostCommand(), "", "candidates", "--data", "@"+path)
	require.NoError(t, err)

	_, err = execute(t, commands.NewPatchCommand(), `{"from": "stdin"}`, "candidates/9", "--data", "@-")
	require.NoError(t, err)

	requests := stub.seen()
	require.Len(t, requests, 2)
	assert.JSONEq(t, `{"from": "file"}`, requests[0].Body)
	assert.Equal(t, http.MethodPatch, requests[1].Method)
	assert.Equal(t, "/candidates/9", requests[1].Path)
	assert.JSONEq(t, `{"from": "stdin"}`, requests[1].Body)

	_, err = execute(t, commands.NewPostCommand(), "", "candidates")
	require.ErrorIs(t, err, constants.ErrNoData)

	_, err = execute(t, commands.NewPostCommand(), "", "candidates", "--data", "{")
	require.Error(t, err)
	assert.Len(t, stub.seen(), 2)
}

func TestWriteCommandsNeedActor(t *testing.T) {
	stub := setupCLI(t, jsonHandler(`{}`))

	_, err := execute(t, commands.NewPostCommand(), "", "candidates", "--data", `{}`)
	require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

	_, err = execute(t, commands.NewDeleteCommand(), "", "candidates/3")
	require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

	assert.Empty(t, stub.seen())
}

func TestDeleteCommand(t *testing.T) {
	stub := setupCLI(t, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNoContent)
	})
	viper.Set("on_behalf_of", "12")

	out, err := execute(t, commands.NewDeleteCommand(), "", "candidates/3")
	require.NoError(t, err)
	assert.Empty(t, out)

	requests := stub.seen()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodDelete, requests[0].Method)
	assert.Equal(t, "/candidates/3", requests[0].Path)
	assert.Equal(t, "12", requests[0].OnBehalfOf)
}

func TestVersionsAndResourcesCommands(t *testing.T) {
	setupCLI(t, jsonHandler(`{}`))

	out, err := execute(t, commands.NewVersionsCommand(), "")
	require.NoError(t, err)
	assert.JSONEq(t, `["v1"]`, out)

	out, err = execute(t, commands.NewResourcesCommand(), "", "candidates")
	require.NoError(t, err)

	var related []string
	require.NoError(t, json.Unmarshal([]byte(out), &related))
	assert.Contains(t, related, "activity_feed")

	out, err = execute(t, commands.NewResourcesCommand(), "")
	require.NoError(t, err)
	assert.Contains(t, out, `"scorecards"`)

	_, err = execute(t, commands.NewResourcesCommand(), "", "spaceships")
	require.ErrorIs(t, err, harvest.ErrEndpointNotFound)
}

func TestVersionCommand(t *testing.T) {
	setupCLI(t, jsonHandler(`{}`))

	out, err := execute(t, commands.NewVersionCommand("1.2.3", "abc", "today"), "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": "1.2.3", "commit": "abc", "built": "today"}`, out)
}

func TestConfigCommand(t *testing.T) {
	setupCLI(t, jsonHandler(`{}`))

	_, err := execute(t, commands.NewConfigCommand(), "", "set", "output", "yaml")
	require.NoError(t, err)

	_, err = execute(t, commands.NewConfigCommand(), "", "set", "on_behalf_of", "99")
	require.NoError(t, err)

	data, err := os.ReadFile(viper.ConfigFileUsed())
	require.NoError(t, err)
	assert.Contains(t, string(data), "output: yaml")
	assert.Contains(t, string(data), "on_behalf_of: \"99\"")
	assert.NotContains(t, string(data), "test-key")

	_, err = execute(t, commands.NewConfigCommand(), "", "unset", "output")
	require.NoError(t, err)

	data, err = os.ReadFile(viper.ConfigFileUsed())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "output")

	_, err = execute(t, commands.NewConfigCommand(), "", "set", "colour", "blue")
	require.ErrorIs(t, err, constants.ErrUnknownConfigKey)

	_, err = execute(t, commands.NewConfigCommand(), "", "set", "output", "xml")
	require.ErrorIs(t, err, constants.ErrUnsupportedFormat)

	out, err := execute(t, commands.NewConfigCommand(), "", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"api_key": "********-key"`)
}

func TestLoginCommand(t *testing.T) {
	stub := setupCLI(t, jsonHandler(`[]`))
	viper.Set("api_key", "")

	out, err := execute(t, commands.NewLoginCommand(), "new-secret-key\n")
	require.NoError(t, err)
	assert.Contains(t, out, "********-key")

	requests := stub.seen()
	require.Len(t, requests, 1)
	assert.Equal(t, "/users", requests[0].Path)
	assert.Equal(t, "per_page=1", requests[0].Query)

	data, err := os.ReadFile(viper.ConfigFileUsed())
	require.NoError(t, err)
	assert.Contains(t, string(data), "api_key: new-secret-key")

	_, err = execute(t, commands.NewLogoutCommand(), "")
	require.NoError(t, err)

	data, err = os.ReadFile(viper.ConfigFileUsed())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "api_key")
}

func TestLoginCommandRejectedKey(t *testing.T) {
	setupCLI(t, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
	})
	viper.Set("api_key", "")

	_, err := execute(t, commands.NewLoginCommand(), "bad\n")
	require.ErrorIs(t, err, harvest.ErrUnauthorized)

	_, err = os.Stat(viper.ConfigFileUsed())
	assert.True(t, os.IsNotExist(err))

	viper.Set("api_key", "")

	_, err = execute(t, commands.NewLoginCommand(), "\n")
	require.ErrorIs(t, err, constants.ErrEmptyAPIKey)
}

func TestExportCommand(t *testing.T) {
	var stub *apiStub

	stub = setupCLI(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Query().Get("page") == "" {
			writer.Header().Set("Link", fmt.Sprintf(`<%s/applications?page=2>; rel="next"`, stub.URL))
			_, _ = io.WriteString(writer, `[ {"id": 1} ]`)

			return
		}

		_, _ = io.WriteString(writer, `[ {"id": 2} ]`)
	})

	file := filepath.Join(t.TempDir(), "applications.jsonl")

	_, err := execute(t, commands.NewExportCommand(), "", "applications", "--file", file)
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "[{\"id\":1}]\n[{\"id\":2}]\n", string(data))

	_, err = execute(t, commands.NewExportCommand(), "", "applications", "--sink", "kafka")
	require.ErrorIs(t, err, constants.ErrUnsupportedSink)

	_, err = execute(t, commands.NewExportCommand(), "", "applications", "--sink", "s3")
	require.ErrorIs(t, err, constants.ErrBucketRequired)
}
