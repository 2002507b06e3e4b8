package metric

import (
	"context"
	stderrors "errors"
	"strings"
	"sync/atomic"
	"testing"
	"text/template"
	"time"

	"github.com/kbukum/getfnative/descale"
	"github.com/kbukum/getfnative/errors"
	"github.com/kbukum/getfnative/logger"
	"github.com/kbukum/getfnative/process"
	"github.com/kbukum/getfnative/resilience"
	"github.com/kbukum/getfnative/sweep"
)

func testJob(t *testing.T) Job {
	t.Helper()
	geom, err := descale.NewGeometry(descale.Size{Width: 1920, Height: 1080}, descale.Crop{}, 0, 0)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	return Job{Input: "clip.vpy", Frame: 3, Params: descale.DefaultParams(), Geometry: geom}
}

func shProducer(t *testing.T, script string, opts ...CommandOption) *CommandProducer {
	t.Helper()
	opts = append([]CommandOption{WithEngineLogger(logger.Nop())}, opts...)
	p, err := NewCommandProducer(CommandConfig{
		Command:     "sh",
		Args:        []string{"-c", script},
		GracePeriod: 200 * time.Millisecond,
	}, testJob(t), opts...)
	if err != nil {
		t.Fatalf("NewCommandProducer: %v", err)
	}
	return p
}

func TestFuncProducer(t *testing.T) {
	p := NewFuncProducer(func(_ context.Context, c sweep.Candidate) (float64, error) {
		if c.Index == 1 {
			return 0, stderrors.New("bad candidate")
		}
		return c.Height * 2, nil
	})
	v, err := p.Submit(context.Background(), sweep.Candidate{Index: 0, Height: 10}).Wait(context.Background())
	if err != nil || v != 20 {
		t.Fatalf("Wait = %g, %v", v, err)
	}
	if _, err := p.Submit(context.Background(), sweep.Candidate{Index: 1, Height: 11}).Wait(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestFutureWaitHonoursContext(t *testing.T) {
	p := NewFuncProducer(func(ctx context.Context, _ sweep.Candidate) (float64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	submitCtx, stop := context.WithCancel(context.Background())
	defer stop()
	h := p.Submit(submitCtx, sweep.Candidate{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := h.Wait(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestResolved(t *testing.T) {
	v, err := Resolved(0.5, nil).Wait(context.Background())
	if v != 0.5 || err != nil {
		t.Fatalf("Resolved = %g, %v", v, err)
	}
}

func TestParseValue(t *testing.T) {
	for in, want := range map[string]float64{"0": 0, "0.0123": 0.0123, "4.5e-05": 4.5e-05} {
		got, err := ParseValue(in)
		if err != nil || got != want {
			t.Errorf("ParseValue(%q) = %g, %v", in, got, err)
		}
	}
	for _, in := range []string{"", "abc", "-0.1", "NaN", "+Inf"} {
		if _, err := ParseValue(in); errors.CodeOf(err) != errors.ErrCodeInvalidInput {
			t.Errorf("ParseValue(%q): expected INVALID_INPUT, got %v", in, err)
		}
	}
}

func TestNewCommandProducer_Validation(t *testing.T) {
	job := testJob(t)
	if _, err := NewCommandProducer(CommandConfig{}, job); errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("empty command: %v", err)
	}
	if _, err := NewCommandProducer(CommandConfig{Command: "sh", Args: []string{"{{.Index"}}, job); errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("bad template: %v", err)
	}
	if _, err := NewCommandProducer(CommandConfig{Command: "getfnative-no-such-engine"}, job); errors.CodeOf(err) != errors.ErrCodeEngineUnavailable {
		t.Errorf("missing engine: %v", err)
	}
	bad := job
	bad.Params.Kernel = "nearest"
	if _, err := NewCommandProducer(CommandConfig{Command: "sh"}, bad); errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("bad kernel: %v", err)
	}
}

func TestCommandProducer_Score(t *testing.T) {
	p := shProducer(t, "echo rendering frame {{.Frame}}; echo {{.Args.Height}}.{{.Index}}")
	v, err := p.Score(context.Background(), sweep.Candidate{Index: 5, Height: 720})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if v != 720.5 {
		t.Fatalf("expected 720.5, got %g", v)
	}
}

func TestCommandProducer_TemplateData(t *testing.T) {
	p := shProducer(t, "true")
	d := p.templateData(sweep.Candidate{Index: 2, Height: 719.5})
	if d.Input != "clip.vpy" || d.Frame != 3 || d.Kernel != "bicubic" || d.Mode != "wh" {
		t.Errorf("unexpected job data %+v", d)
	}
	if d.Args.Height != 720 || d.Args.SrcTop != 0.25 {
		t.Errorf("unexpected cropping args %+v", d.Args)
	}

	args, err := render(mustParse(t, `{{json .Args.Fields}}`, `{{num .C}}`), d)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(args[0], `"src_top":0.25`) || args[1] != "0.5" {
		t.Errorf("unexpected rendered args %q", args)
	}
}

func mustParse(t *testing.T, args ...string) []*template.Template {
	t.Helper()
	tmpls, err := parseArgs("test", args)
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	return tmpls
}

func TestCommandProducer_EngineFailure(t *testing.T) {
	p := shProducer(t, "echo 'descale failed' >&2; exit 3")
	_, err := p.Score(context.Background(), sweep.Candidate{Index: 0, Height: 700})
	var exitErr *process.ExitError
	if !stderrors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Fatalf("expected exit code 3, got %v", err)
	}
	if !strings.Contains(exitErr.Stderr, "descale failed") {
		t.Errorf("stderr not captured: %q", exitErr.Stderr)
	}
}

func TestCommandProducer_GarbageOutput(t *testing.T) {
	p := shProducer(t, "echo not-a-number")
	if _, err := p.Score(context.Background(), sweep.Candidate{Height: 700}); errors.CodeOf(err) != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestCommandProducer_Cancel(t *testing.T) {
	p := shProducer(t, "sleep 10; echo 1")
	ctx, cancel := context.WithCancel(context.Background())
	h := p.Submit(ctx, sweep.Candidate{Height: 700})
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := h.Wait(context.Background())
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("engine was not terminated on cancel")
	}
}

func TestCommandProducer_SharedBulkhead(t *testing.T) {
	var peak atomic.Int64
	bh := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "engine",
		MaxConcurrent: 2,
		OnAcquire: func(_ string, inUse int) {
			for {
				p := peak.Load()
				if int64(inUse) <= p || peak.CompareAndSwap(p, int64(inUse)) {
					return
				}
			}
		},
	})
	p := shProducer(t, "sleep 0.05; echo {{.Index}}", WithBulkhead(bh))

	handles := make([]sweep.Handle, 6)
	for i := range handles {
		handles[i] = p.Submit(context.Background(), sweep.Candidate{Index: i, Height: float64(700 + i)})
	}
	for i, h := range handles {
		v, err := h.Wait(context.Background())
		if err != nil || v != float64(i) {
			t.Errorf("candidate %d: %g, %v", i, v, err)
		}
	}
	if peak.Load() > 2 {
		t.Errorf("engine ceiling exceeded: %d", peak.Load())
	}
}

func TestProbe(t *testing.T) {
	cfg := CommandConfig{Command: "sh", ProbeArgs: []string{"-c", "echo probing {{.Input}}; echo 1280x720"}}
	size, err := Probe(context.Background(), cfg, "clip.vpy", 0)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if size != (descale.Size{Width: 1280, Height: 720}) {
		t.Fatalf("unexpected size %s", size)
	}

	if _, err := Probe(context.Background(), CommandConfig{Command: "sh"}, "clip.vpy", 0); errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("expected INVALID_CONFIG without probe args, got %v", err)
	}
	bad := CommandConfig{Command: "sh", ProbeArgs: []string{"-c", "echo nonsense"}}
	if _, err := Probe(context.Background(), bad, "clip.vpy", 0); errors.CodeOf(err) != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT for bad probe output, got %v", err)
	}
}
