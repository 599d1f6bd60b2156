package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"humanizerd/internal/engine"
)

// blockingService holds each Humanize call until its context ends.
type blockingService struct {
	started chan struct{}
}

func (b *blockingService) Snapshot() engine.Snapshot { return engine.Snapshot{ModelLoaded: true} }
func (b *blockingService) Humanize(ctx context.Context, text string, p engine.Params) (string, error) {
	close(b.started)
	<-ctx.Done()
	return "", ctx.Err()
}

func TestHumanize_ShutdownCancelsInFlight(t *testing.T) {
	base, shutdown := context.WithCancel(context.Background())
	defer shutdown()
	SetBaseContext(base)
	t.Cleanup(func() { SetBaseContext(nil) })

	svc := &blockingService{started: make(chan struct{})}
	r := NewMux(svc, testCode)
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/humanize", strings.NewReader(`{"text":"a long paragraph"}`))
		req.Header.Set("Authorization", testCode)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		done <- w
	}()

	select {
	case <-svc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("humanize was never called")
	}
	shutdown()
	select {
	case w := <-done:
		if w.Code != http.StatusInternalServerError { t.Fatalf("status=%d", w.Code) }
		if d := detail(t, w); d != "Internal server error: context canceled" { t.Fatalf("detail=%q", d) }
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight humanize outlived shutdown")
	}
}

func TestSetBaseContext_NilResetsToBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	cancel()
	// nolint:staticcheck // SA1012: nil selects the background context
	SetBaseContext(nil)
	if serverBaseCtx.Err() != nil { t.Fatalf("base context should be live after reset") }
}

func TestJoinContexts_CancelsWhenEitherDone(t *testing.T) {
	for _, first := range []string{"base", "request"} {
		base, bc := context.WithCancel(context.Background())
		req, rc := context.WithCancel(context.Background())
		j, cancelJ := joinContexts(base, req)
		if first == "base" { bc() } else { rc() }
		select {
		case <-j.Done():
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("joined context ignored %s cancellation", first)
		}
		cancelJ()
		bc()
		rc()
	}
}
