package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// executeCommand runs the command tree with args and returns captured output.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy","service":"carbon-estimator"}`)
	})
	mux.HandleFunc("GET /api/test", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"message":"Backend is working!"}`)
	})
	mux.HandleFunc("POST /estimate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Dish string `json:"dish"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Dish == "Car" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"detail":"Input does not appear to be food-related"}`)
			return
		}
		_, _ = io.WriteString(w, `{"dish":"`+req.Dish+`","estimated_carbon_kg":3.4,"ingredients":[{"name":"Beef","carbon_kg":3.0}]}`)
	})
	mux.HandleFunc("POST /estimate/image", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"dish":"Sushi Roll","estimated_carbon_kg":0.6,"ingredients":[]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("CARBON_API_URL", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "history.db"))
}

func TestRootHasSubcommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "estimate", "estimate-image", "health", "history", "tui"} {
		assert.Contains(t, names, want)
	}
}

func TestEstimateCommand(t *testing.T) {
	isolateEnv(t)
	backend := newBackend(t)

	out, _, err := executeCommand(t, "--api-url", backend.URL, "estimate", "Beef", "Burger")
	require.NoError(t, err)
	assert.Contains(t, out, "Beef Burger")
	assert.Contains(t, out, "3.40 kg CO₂")
	assert.Contains(t, out, "High Impact")
	assert.Contains(t, out, "Result from: Text input")
}

func TestEstimateCommandJSON(t *testing.T) {
	isolateEnv(t)
	backend := newBackend(t)

	out, _, err := executeCommand(t, "--api-url", backend.URL, "estimate", "--json", "Beef Burger")
	require.NoError(t, err)

	var got struct {
		Dish              string  `json:"dish"`
		EstimatedCarbonKg float64 `json:"estimated_carbon_kg"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Beef Burger", got.Dish)
	assert.InDelta(t, 3.4, got.EstimatedCarbonKg, 1e-9)
}

func TestEstimateCommandBackendError(t *testing.T) {
	isolateEnv(t)
	backend := newBackend(t)

	_, stderr, err := executeCommand(t, "--api-url", backend.URL, "estimate", "Car")
	require.Error(t, err)
	assert.Equal(t, "Input does not appear to be food-related", err.Error())
	assert.Contains(t, stderr, "Not a Food Item")
}

func TestEstimateImageCommand(t *testing.T) {
	isolateEnv(t)
	backend := newBackend(t)

	path := filepath.Join(t.TempDir(), "sushi.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0o600))

	out, _, err := executeCommand(t, "--api-url", backend.URL, "estimate-image", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Sushi Roll")
	assert.Contains(t, out, "Low Impact")
	assert.Contains(t, out, "Result from: Image upload")
}

func TestEstimateImageCommandRejectsFormat(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "logo.svg")
	require.NoError(t, os.WriteFile(path, []byte("<svg/>"), 0o600))

	// No backend is running; validation must fail first.
	_, _, err := executeCommand(t, "--api-url", "http://127.0.0.1:1", "estimate-image", path)
	require.Error(t, err)
	assert.Equal(t, "Please select a valid image format (JPEG, PNG, WebP, or GIF)", err.Error())
}

func TestHealthCommand(t *testing.T) {
	isolateEnv(t)
	backend := newBackend(t)

	out, _, err := executeCommand(t, "--api-url", backend.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "healthy (carbon-estimator)")
	assert.NotContains(t, out, "api:")

	out, _, err = executeCommand(t, "--api-url", backend.URL, "health", "--probe")
	require.NoError(t, err)
	assert.Contains(t, out, "api: Backend is working!")
}

func TestHistoryCommandEmptyAndExport(t *testing.T) {
	isolateEnv(t)

	out, _, err := executeCommand(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No estimations yet")

	xlsxPath := filepath.Join(t.TempDir(), "history.xlsx")
	out, _, err = executeCommand(t, "history", "--xlsx", xlsxPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 0 estimations")

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Estimations", "Ingredients"}, f.GetSheetList())
}
