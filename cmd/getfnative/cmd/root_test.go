package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/getfnative/version"
)

// isolate keeps config discovery away from the developer's files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := RootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	code = execute(context.Background(), root, args)
	return code, out.String(), errOut.String()
}

func TestFlagKeysAreDefined(t *testing.T) {
	root := RootCmd()
	for name := range flagKeys {
		if root.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s is mapped but not defined", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	code, out, _ := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"Version:", "Commit:", "Go version:", "Platform:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	code, out, _ = runCLI(t, "version", "--short")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if got := strings.TrimSpace(out); got != version.Get().Short() {
		t.Errorf("short version = %q, want %q", got, version.Get().Short())
	}
}

func TestExitCodes(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "clip.vpy")
	if err := os.WriteFile(input, []byte("clip"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no input", nil, 2},
		{"two inputs", []string{"a", "b"}, 2},
		{"missing input", []string{filepath.Join(dir, "missing.vpy")}, 2},
		{"unknown flag", []string{"--no-such-flag", input}, 2},
		{"bad fraction", []string{"--bicubic-c", "1/0", input}, 2},
		{"missing engine", []string{"--clip-width", "1280", "--clip-height", "720", input}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			if code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestUsageHint(t *testing.T) {
	isolate(t)
	_, _, stderr := runCLI(t)
	if !strings.Contains(stderr, "--help") {
		t.Errorf("stderr = %q, want usage hint", stderr)
	}
}

func writeEngineConfig(t *testing.T, dir, script string) string {
	t.Helper()
	path := filepath.Join(dir, "getfnative.yml")
	body := "engine:\n" +
		"  command: sh\n" +
		"  args: [\"-c\", " + `"` + script + `"` + "]\n" +
		"logging:\n" +
		"  level: error\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSweepAndHistory(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "clip.vpy")
	if err := os.WriteFile(input, []byte("clip"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeEngineConfig(t, dir, "echo 0.0{{.Index}}1")
	outDir := filepath.Join(dir, "out")
	db := filepath.Join(dir, "runs.db")

	code, out, stderr := runCLI(t,
		"--config", cfgPath,
		"--clip-width", "1280", "--clip-height", "720",
		"--min-src-height", "716", "--max-src-height", "720", "--step-length", "1",
		"--concurrency", "2",
		"--save-dir", outDir,
		"--db", db,
		input,
	)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	plot := strings.TrimSpace(out)
	if want := filepath.Join(outDir, "getfnative-f0-bh720-1.svg"); plot != want {
		t.Errorf("plot path = %q, want %q", plot, want)
	}
	if _, err := os.Stat(plot); err != nil {
		t.Errorf("plot not written: %v", err)
	}
	if !strings.Contains(stderr, "ready in") {
		t.Errorf("startup summary missing from stderr:\n%s", stderr)
	}

	code, out, stderr = runCLI(t, "history", "--db", db)
	if code != 0 {
		t.Fatalf("history exit code = %d, stderr:\n%s", code, stderr)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("history output = %q, want header and one run", out)
	}
	fields := strings.Fields(lines[1])
	for _, want := range []string{"1280x720", "5/5", "716"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("run row %q missing %q", lines[1], want)
		}
	}

	code, out, _ = runCLI(t, "history", "--db", db, fields[0])
	if code != 0 {
		t.Fatalf("history curve exit code = %d", code)
	}
	curve := strings.Split(strings.TrimSpace(out), "\n")
	if len(curve) != 6 {
		t.Fatalf("curve output = %q, want header and 5 samples", out)
	}
	if got := strings.Fields(curve[1]); got[0] != "716" || got[1] != "0.001" {
		t.Errorf("first sample = %v, want [716 0.001]", got)
	}
}

func TestSweepEngineFailure(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "clip.vpy")
	if err := os.WriteFile(input, []byte("clip"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeEngineConfig(t, dir, "if [ {{.Index}} -ge 2 ]; then exit 1; fi; echo 0.5")

	code, out, _ := runCLI(t,
		"--config", cfgPath,
		"--clip-width", "1280", "--clip-height", "720",
		"--heights", "716,717,718,719",
		"--concurrency", "1",
		"--save-dir", filepath.Join(dir, "out"),
		input,
	)
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if strings.TrimSpace(out) != "" {
		t.Errorf("stdout = %q, want no plot path on failure", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "getfnative-f0-bh720-1.svg")); err != nil {
		t.Errorf("partial plot not written: %v", err)
	}
}

func TestHistoryWithoutDB(t *testing.T) {
	isolate(t)
	if code, _, _ := runCLI(t, "history"); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if code, _, _ := runCLI(t, "history", "--db", filepath.Join(t.TempDir(), "h.db"), "not-a-uuid"); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestExampleConfig(t *testing.T) {
	path, err := filepath.Abs("../config.example.yml")
	if err != nil {
		t.Fatal(err)
	}
	isolate(t)

	root := RootCmd()
	if err := root.ParseFlags([]string{"--config", path}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(root)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("example config is invalid: %v", err)
	}
	if cfg.Descale.C != 0.5 {
		t.Errorf("descale.c = %v, want 0.5", cfg.Descale.C)
	}
	if cfg.Engine.Timeout != 2*time.Minute {
		t.Errorf("engine.timeout = %v, want 2m", cfg.Engine.Timeout)
	}
	if len(cfg.Engine.Args) != 9 {
		t.Errorf("engine.args has %d entries, want 9", len(cfg.Engine.Args))
	}
}
