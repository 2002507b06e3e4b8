package report

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/getfnative/descale"
	"github.com/kbukum/getfnative/errors"
	"github.com/kbukum/getfnative/logger"
	"github.com/kbukum/getfnative/sweep"
)

func testMeta(t *testing.T, input string) Meta {
	t.Helper()
	geom, err := descale.NewGeometry(descale.Size{Width: 1920, Height: 1080}, descale.Crop{}, 0, 0)
	require.NoError(t, err)
	return Meta{Input: input, Frame: 12, Params: descale.DefaultParams(), Geometry: geom}
}

func testOutcome(t *testing.T, completed int, runErr error) *sweep.Outcome {
	t.Helper()
	cands, err := sweep.Range(700, 704, 0.5)
	require.NoError(t, err)
	vals := make([]float64, len(cands))
	for i := 0; i < completed; i++ {
		vals[i] = 0.01 + float64((i-4)*(i-4))/1000
	}
	return &sweep.Outcome{
		RunID:      uuid.New(),
		Candidates: cands,
		Values:     vals,
		Completed:  completed,
		Started:    time.Now(),
		Duration:   1500 * time.Millisecond,
		Err:        runErr,
	}
}

func TestUniquePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	first, err := UniquePath(dir, 3, 1080, ".SVG")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "getfnative-f3-bh1080-1.svg"), first)
	require.NoError(t, os.WriteFile(first, nil, 0o644))

	second, err := UniquePath(dir, 3, 1080, "svg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "getfnative-f3-bh1080-2.svg"), second)

	other, err := UniquePath(dir, 3, 1080, "png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "getfnative-f3-bh1080-1.png"), other)
}

func TestDefaultDirAndWithExt(t *testing.T) {
	assert.Equal(t, filepath.Join("clips", DefaultDirName), DefaultDir(filepath.Join("clips", "ep01.vpy")))
	assert.Equal(t, "a/b-1.html", WithExt("a/b-1.svg", ".HTML"))
}

func TestPlotRenderer(t *testing.T) {
	for _, ext := range []string{"svg", "png", "pdf"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "curve."+ext)
			err := NewPlotRenderer().Render(sampleCurve(t), "test", path)
			require.NoError(t, err)
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}
}

func TestPlotRendererDegenerateCurves(t *testing.T) {
	tests := []struct {
		name    string
		heights []float64
		values  []float64
	}{
		{"single sample", []float64{716}, []float64{0.01}},
		{"flat", []float64{716, 717, 718}, []float64{0.5, 0.5, 0.5}},
		{"all zero", []float64{716, 717}, []float64{0, 0}},
		{"zero and positive", []float64{716, 717, 718}, []float64{0, 0.2, 0.3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCurve(tt.heights, tt.values)
			require.NoError(t, err)
			path := filepath.Join(t.TempDir(), "curve.svg")
			require.NoError(t, NewPlotRenderer().Render(c, tt.name, path))
			assert.FileExists(t, path)

			p, err := NewPlotRenderer().Build(c, tt.name)
			require.NoError(t, err)
			assert.Positive(t, p.Y.Min)
			assert.Greater(t, p.Y.Max, p.Y.Min)
		})
	}
}

func TestPlotRendererEmpty(t *testing.T) {
	_, err := NewPlotRenderer().Build(Curve{}, "empty")
	assert.Equal(t, errors.ErrCodeReportFailed, errors.CodeOf(err))
}

func TestSupportedFormat(t *testing.T) {
	assert.True(t, SupportedFormat(".svg"))
	assert.True(t, SupportedFormat("PNG"))
	assert.False(t, SupportedFormat("gif"))
}

func TestChartRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewChartRenderer().Write(&buf, sampleCurve(t), "getfnative", "bicubic"))
	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "src_height")
	assert.Contains(t, html, "703")

	err := NewChartRenderer().Write(&buf, Curve{}, "x", "y")
	assert.Equal(t, errors.ErrCodeReportFailed, errors.CodeOf(err))
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	defer store.Close()

	curve := sampleCurve(t)
	best, _ := curve.Best()
	older := Run{
		ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour), Input: "a.vpy", Kernel: "bilinear", Mode: "wh",
		BaseWidth: 1920, BaseHeight: 1080, Total: 7, Completed: 7, Duration: time.Second, Best: &best,
	}
	newer := Run{
		ID: uuid.New(), CreatedAt: time.Now(), Input: "b.vpy", Frame: 4, Kernel: "bicubic(b=0, c=0.5)", Mode: "h",
		BaseWidth: 1920, BaseHeight: 1080, Total: 10, Completed: 0, Failure: "engine crashed",
	}
	require.NoError(t, store.Save(ctx, older, curve))
	require.NoError(t, store.Save(ctx, newer, Curve{}))

	runs, err := store.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, "engine crashed", runs[0].Failure)
	assert.Nil(t, runs[0].Best)
	assert.Equal(t, older.ID, runs[1].ID)
	require.NotNil(t, runs[1].Best)
	assert.Equal(t, best, *runs[1].Best)
	assert.Equal(t, time.Second, runs[1].Duration)

	got, err := store.Curve(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, curve, got)

	// Duplicate run ids are rejected.
	err = store.Save(ctx, older, curve)
	assert.Equal(t, errors.ErrCodeStorageFailed, errors.CodeOf(err))
}

func TestReporterComplete(t *testing.T) {
	dir := t.TempDir()
	r, err := NewReporter(Options{
		Dir:    filepath.Join(dir, "plots"),
		Ext:    "png",
		HTML:   true,
		DBPath: filepath.Join(dir, "history.db"),
	}, logger.Nop())
	require.NoError(t, err)
	defer r.Close()

	out := testOutcome(t, 9, nil)
	res, err := r.Report(context.Background(), out, testMeta(t, filepath.Join(dir, "clip.vpy")))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "plots", "getfnative-f12-bh1080-1.png"), res.PlotPath)
	assert.FileExists(t, res.PlotPath)
	assert.True(t, strings.HasSuffix(res.ChartPath, ".html"))
	assert.FileExists(t, res.ChartPath)
	require.NotNil(t, res.Best)
	assert.Equal(t, 702.0, res.Best.Height)
	assert.True(t, res.Stored)

	runs, err := r.store.Runs(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, out.RunID, runs[0].ID)
	assert.Equal(t, 9, runs[0].Completed)
}

func TestReporterPartial(t *testing.T) {
	dir := t.TempDir()
	r, err := NewReporter(Options{DBPath: filepath.Join(dir, "history.db")}, logger.Nop())
	require.NoError(t, err)
	defer r.Close()

	out := testOutcome(t, 3, stderrors.New("engine crashed"))
	res, err := r.Report(context.Background(), out, testMeta(t, filepath.Join(dir, "clip.vpy")))
	require.NoError(t, err)

	// Default dir sits next to the input.
	assert.Equal(t, filepath.Join(dir, DefaultDirName, "getfnative-f12-bh1080-1.svg"), res.PlotPath)
	assert.Empty(t, res.ChartPath)

	curve, err := r.store.Curve(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, 3, curve.Len())

	runs, err := r.store.Runs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "engine crashed", runs[0].Failure)
}

func TestReporterSingleResult(t *testing.T) {
	dir := t.TempDir()
	r, err := NewReporter(Options{Dir: dir, DBPath: filepath.Join(dir, "history.db")}, logger.Nop())
	require.NoError(t, err)
	defer r.Close()

	out := testOutcome(t, 1, stderrors.New("engine crashed"))
	res, err := r.Report(context.Background(), out, testMeta(t, "clip.vpy"))
	require.NoError(t, err)
	assert.FileExists(t, res.PlotPath)
	assert.True(t, res.Stored)
	require.NotNil(t, res.Best)
}

func TestReporterNothingCompleted(t *testing.T) {
	dir := t.TempDir()
	r, err := NewReporter(Options{Dir: dir}, logger.Nop())
	require.NoError(t, err)

	res, err := r.Report(context.Background(), testOutcome(t, 0, stderrors.New("boom")), testMeta(t, "clip.vpy"))
	require.NoError(t, err)
	assert.Empty(t, res.PlotPath)
	assert.Nil(t, res.Best)
	assert.False(t, res.Stored)
	require.NoError(t, r.Close())
}

func TestNewReporterRejectsFormat(t *testing.T) {
	_, err := NewReporter(Options{Ext: "gif"}, logger.Nop())
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.CodeOf(err))
}
