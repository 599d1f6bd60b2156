package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_LoadAttemptsByOutcome(t *testing.T) {
	withCUDA(t, false)
	dir := adapterDir(t)
	failBefore := testutil.ToFloat64(modelLoadAttempts.WithLabelValues("metrics-m1", "error"))
	okBefore := testutil.ToFloat64(modelLoadAttempts.WithLabelValues("metrics-m2", "ok"))
	fa := &fakeAdapter{startErrs: map[string]error{"metrics-m1": errBoom}}
	if _, err := Load(testCtx(t), LoaderConfig{AdapterDirs: []string{dir}, Candidates: []string{"metrics-m1", "metrics-m2"}, Logger: nopLogger()}, fa); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := testutil.ToFloat64(modelLoadAttempts.WithLabelValues("metrics-m1", "error")); got != failBefore+1 { t.Fatalf("error attempts=%v", got) }
	if got := testutil.ToFloat64(modelLoadAttempts.WithLabelValues("metrics-m2", "ok")); got != okBefore+1 { t.Fatalf("ok attempts=%v", got) }
}

func TestMetrics_GenerationsByOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(generationsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(generationsTotal.WithLabelValues("error"))

	h := NewHumanizer(loadedWith(&fakeSession{tokens: []string{"fine"}}), nopLogger())
	if _, err := h.Generate(testCtx(t), "x", Params{}); err != nil { t.Fatalf("generate: %v", err) }
	h = NewHumanizer(loadedWith(&fakeSession{genErr: errBoom}), nopLogger())
	_, _ = h.Generate(testCtx(t), "x", Params{})

	if got := testutil.ToFloat64(generationsTotal.WithLabelValues("ok")); got != okBefore+1 { t.Fatalf("ok=%v", got) }
	if got := testutil.ToFloat64(generationsTotal.WithLabelValues("error")); got != errBefore+1 { t.Fatalf("error=%v", got) }
	if n := testutil.CollectAndCount(generationDuration); n != 1 { t.Fatalf("duration histogram series=%d", n) }
}
