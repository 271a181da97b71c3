package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/mas"
)

const chainTaskTOML = `
initial = [0, 0]
goal = [{ var = 0, value = 1 }, { var = 1, value = 1 }]

[[variables]]
name = "v1"
domain = 2

[[variables]]
name = "v2"
domain = 2

[[operators]]
name = "set-v1"
cost = 1
eff = [{ var = 0, value = 1 }]

[[operators]]
name = "set-v2"
cost = 1
pre = [{ var = 0, value = 1 }]
eff = [{ var = 1, value = 1 }]
`

// writeFile writes content to name in a fresh temp directory.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args, discarding stdout.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	stdout := os.Stdout
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = devnull
	defer func() {
		os.Stdout = stdout
		devnull.Close()
	}()

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"build", "eval", "sccs", "dot", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("RootCommand() lacks %q, has %v", want, names)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.SetLogLevel(LogDebug)
	if got := c.Logger.GetLevel(); got != log.DebugLevel {
		t.Errorf("GetLevel() = %v, want %v", got, log.DebugLevel)
	}
}

func TestEngineLog(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		in    mas.Verbosity
		want  mas.Verbosity
	}{
		{"info keeps normal", log.InfoLevel, mas.Normal, mas.Normal},
		{"info keeps silent", log.InfoLevel, mas.Silent, mas.Silent},
		{"debug raises normal", log.DebugLevel, mas.Normal, mas.Verbose},
		{"debug keeps debug", log.DebugLevel, mas.Debug, mas.Debug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(io.Discard, tt.level)
			if got := c.engineLog(tt.in).Verbosity(); got != tt.want {
				t.Errorf("engineLog(%v).Verbosity() = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadConfigDefault(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Merge.Strategy != "sccs" {
		t.Errorf("loadConfig().Merge.Strategy = %q, want %q", cfg.Merge.Strategy, "sccs")
	}
}

func TestBuildCommand(t *testing.T) {
	taskPath := writeFile(t, "task.toml", chainTaskTOML)
	configPath := writeFile(t, "config.yaml", "verbosity: silent\nshrink:\n  strategy: random\n")

	tests := []struct {
		name string
		args []string
	}{
		{"default", []string{"build", taskPath}},
		{"config", []string{"build", taskPath, "-c", configPath}},
		{"overrides", []string{"build", taskPath, "--max-states", "2", "--order-of-sccs", "decreasing", "--all-clusters=false"}},
		{"metrics", []string{"build", taskPath, "--metrics"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := execute(t, tt.args...); err != nil {
				t.Errorf("execute(%v) error = %v", tt.args, err)
			}
		})
	}
}

func TestBuildCommandErrors(t *testing.T) {
	taskPath := writeFile(t, "task.toml", chainTaskTOML)
	badTask := writeFile(t, "bad.toml", "initial = [0]\n")

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing task", []string{"build", filepath.Join(t.TempDir(), "none.toml")}, errors.ErrCodeFileNotFound},
		{"invalid task", []string{"build", badTask}, errors.ErrCodeInvalidTask},
		{"bad order", []string{"build", taskPath, "--order-of-sccs", "sideways"}, errors.ErrCodeInvalidConfig},
		{"missing config", []string{"build", taskPath, "-c", filepath.Join(t.TempDir(), "none.toml")}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("execute(%v) error = %v, want code %s", tt.args, err, tt.code)
			}
		})
	}
}

func TestSCCsCommand(t *testing.T) {
	taskPath := writeFile(t, "task.toml", chainTaskTOML)
	if err := execute(t, "sccs", taskPath, "--order", "reverse_topological"); err != nil {
		t.Errorf("sccs error = %v", err)
	}
	if err := execute(t, "sccs", taskPath, "--order", "sideways"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("sccs with bad order error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestDotCommand(t *testing.T) {
	taskPath := writeFile(t, "task.toml", chainTaskTOML)
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		out  string
		want string
	}{
		{"causal graph", []string{"dot", taskPath}, "cg.dot", "digraph causal_graph"},
		{"variable by name", []string{"dot", taskPath, "--var", "v2"}, "v2.dot", "digraph transition_system"},
		{"variable by index", []string{"dot", taskPath, "--var", "0"}, "v1.dot", "start -> node0"},
		{"final", []string{"dot", taskPath, "--final"}, "final.dot", "doublecircle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.out)
			if err := execute(t, append(tt.args, "-o", out)...); err != nil {
				t.Fatalf("execute(%v) error = %v", tt.args, err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Contains(data, []byte(tt.want)) {
				t.Errorf("output %s lacks %q:\n%s", tt.out, tt.want, data)
			}
		})
	}

	if err := execute(t, "dot", taskPath, "--var", "v3"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("dot --var v3 error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if err := execute(t, "dot", taskPath, "--var", "v1", "--final"); err == nil {
		t.Error("dot with --var and --final should fail")
	}
}

func TestCompletionCommand(t *testing.T) {
	if err := execute(t, "completion", "bash"); err != nil {
		t.Errorf("completion bash error = %v", err)
	}
	if err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh should fail")
	}
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"Metric", "Value"}, [][]string{{"merges", "3"}})
	for _, want := range []string{"Metric", "Value", "merges", "3"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderTable() lacks %q:\n%s", want, got)
		}
	}
}
