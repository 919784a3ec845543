package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/vibepilot/internal/shared"
	tu "github.com/desertthunder/vibepilot/internal/testing"
	"github.com/desertthunder/vibepilot/internal/vibes"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			spotify := &tu.MockService{}
			completer := &tu.MockCompleter{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Spotify:    spotify,
				Completer:  completer,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
			if runner.completer != completer {
				t.Error("expected completer to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("handleSpotifyAuthError", func(t *testing.T) {
		ctx := context.Background()

		t.Run("nil error passes through", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			handled, err := runner.handleSpotifyAuthError(ctx, nil, &cli.Command{})
			if handled || err != nil {
				t.Errorf("got handled=%v err=%v, want false, nil", handled, err)
			}
		})

		t.Run("non-expiry errors are not handled", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			original := errors.New("network down")
			handled, err := runner.handleSpotifyAuthError(ctx, original, &cli.Command{})
			if handled {
				t.Error("only token expiry should trigger reauthorization")
			}
			if err != original {
				t.Errorf("err = %v, want the original error", err)
			}
		})

		t.Run("expired token without a config file", func(t *testing.T) {
			wd := tu.MustGetwd(t)
			tu.MustChdir(t, t.TempDir())
			defer tu.MustChdir(t, wd)

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			runner.config = nil

			expired := fmt.Errorf("%w: spotify returned 401", shared.ErrTokenExpired)
			handled, err := runner.handleSpotifyAuthError(ctx, expired, &cli.Command{})
			if !handled {
				t.Error("token expiry should be handled")
			}
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("error %v should wrap ErrMissingConfig", err)
			}
		})

		t.Run("expired token with an unparseable config file", func(t *testing.T) {
			wd := tu.MustGetwd(t)
			tmpDir := t.TempDir()
			tu.MustChdir(t, tmpDir)
			defer tu.MustChdir(t, wd)

			if err := os.WriteFile("config.toml", []byte("[credentials"), 0644); err != nil {
				t.Fatalf("setup failed: %v", err)
			}

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			runner.config = nil

			expired := fmt.Errorf("%w: spotify returned 401", shared.ErrTokenExpired)
			handled, err := runner.handleSpotifyAuthError(ctx, expired, &cli.Command{})
			if !handled {
				t.Error("token expiry should be handled")
			}
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("error %v should wrap ErrInvalidConfig", err)
			}
		})
	})

	t.Run("requireSpotify", func(t *testing.T) {
		t.Run("fails before auth", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if _, err := runner.requireSpotify(); err == nil {
				t.Error("expected error without a Spotify service")
			}
		})

		t.Run("returns the configured service", func(t *testing.T) {
			spotify := &tu.MockService{}
			runner := NewRunner(RunnerOpts{Spotify: spotify})

			got, err := runner.requireSpotify()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != spotify {
				t.Error("expected the configured service back")
			}
		})
	})
}

func TestVibesCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("list prints every category", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		cmd := &cli.Command{Commands: []*cli.Command{vibesCommand(runner)}}
		if err := cmd.Run(ctx, []string{"vibepilot", "vibes", "list"}); err != nil {
			t.Fatalf("command failed: %v", err)
		}

		result := output.String()
		for _, vibe := range vibes.All() {
			if !strings.Contains(result, string(vibe)) {
				t.Errorf("output missing %q", vibe)
			}
		}
	})

	t.Run("list --json emits the full set", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		cmd := &cli.Command{Commands: []*cli.Command{vibesCommand(runner)}}
		if err := cmd.Run(ctx, []string{"vibepilot", "vibes", "list", "--json"}); err != nil {
			t.Fatalf("command failed: %v", err)
		}

		result := output.String()
		if !strings.HasPrefix(strings.TrimSpace(result), "[") {
			t.Errorf("expected a JSON array, got %s", result)
		}
		if !strings.Contains(result, string(vibes.VibeUnclassified)) {
			t.Errorf("JSON output missing the fallback category")
		}
	})
}
