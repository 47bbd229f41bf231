package benchmarks

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/randalmurphal/routestack/pkg/routestack"
	"github.com/randalmurphal/routestack/pkg/routestack/event"
)

// buildStack creates n literal routes plus one segment catch-all that is
// tried last.
func buildStack(b *testing.B, n int) *routestack.Stack {
	b.Helper()
	s := routestack.New()
	catchall, err := routestack.NewSegment("/:page", nil, nil)
	if err != nil {
		b.Fatal(err)
	}
	s.AddRoute("catchall", catchall, routestack.WithPriority(-1))
	for i := 0; i < n; i++ {
		s.AddRoute("r"+strconv.Itoa(i), routestack.NewLiteral("/r/"+strconv.Itoa(i), nil))
	}
	return s
}

// BenchmarkMatch_First matches the first route tried.
func BenchmarkMatch_First(b *testing.B) {
	s := buildStack(b, 100)
	req := httptest.NewRequest("GET", "/r/99", nil)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Match(ctx, req)
	}
}

// BenchmarkMatch_Last falls through every literal to the catch-all.
func BenchmarkMatch_Last(b *testing.B) {
	s := buildStack(b, 100)
	req := httptest.NewRequest("GET", "/about", nil)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Match(ctx, req)
	}
}

// BenchmarkAssemble builds a segment path.
func BenchmarkAssemble(b *testing.B) {
	s := routestack.New()
	seg, err := routestack.NewSegment("/user/:id/:action", nil, map[string]string{"action": "view"})
	if err != nil {
		b.Fatal(err)
	}
	s.AddRoute("user", seg)
	params := map[string]string{"id": "42"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Assemble("user", params)
	}
}

// BenchmarkDispatch routes an event to five handlers.
func BenchmarkDispatch(b *testing.B) {
	router := event.NewRouter(event.RouterConfig{})
	for i := 0; i < 5; i++ {
		router.Register(event.HandlerFunc(func(context.Context, event.Event) ([]event.Event, error) {
			return nil, nil
		}), event.WithHandlerPriority(i))
	}
	evt := event.NewAny("route.matched", "bench", nil)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = router.Route(ctx, evt)
	}
}

// BenchmarkSQLiteDLQ_Enqueue measures persisting handler failures.
func BenchmarkSQLiteDLQ_Enqueue(b *testing.B) {
	dlq, err := event.NewSQLiteDLQ(filepath.Join(b.TempDir(), "dlq.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer dlq.Close()

	evt := event.NewAny("route.matched", "bench", map[string]string{"route": "home"})
	failed := event.NewFailedEvent(evt, context.DeadlineExceeded, "audit", 1)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		failed.Handler = "h" + strconv.Itoa(i%100)
		_ = dlq.Enqueue(ctx, failed)
	}
}
