package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nntexpressinc/safetybot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testClient(baseURL string) *Client {
	c := NewClient(baseURL, "test-key", 25, 4, testLogger())
	c.backoffBase = time.Millisecond
	return c
}

func speedingBody(total int, pageNo int, ids ...int64) string {
	events := ""
	for i, id := range ids {
		if i > 0 {
			events += ","
		}
		events += fmt.Sprintf(`{"speeding_event":{"id":%d,"metadata":{"severity":"high"}}}`, id)
	}
	return fmt.Sprintf(`{"speeding_events":[%s],"pagination":{"per_page":25,"page_no":%d,"total":%d}}`, events, pageNo, total)
}

func TestClient_FetchSpeedingPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != speedingPath {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "25" {
			t.Errorf("expected per_page=25, got %q", got)
		}
		fmt.Fprint(w, speedingBody(2, 1, 100, 101))
	}))
	t.Cleanup(ts.Close)

	events, more, err := testClient(ts.URL).Fetch(context.Background(), domain.CategorySpeeding, 1)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID == nil || *events[0].ID != 100 {
		t.Errorf("expected first id 100, got %v", events[0].ID)
	}
	if more {
		t.Error("expected no more pages (2 of 2 fetched)")
	}
}

func TestClient_FetchPerformanceCategoryParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != performancePath {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("event_types"); got != "hard_brake" {
			t.Errorf("expected event_types=hard_brake, got %q", got)
		}
		if got := r.URL.Query().Get("media_required"); got != "true" {
			t.Errorf("expected media_required=true, got %q", got)
		}
		fmt.Fprint(w, `{"driver_performance_events":[{"driver_performance_event":{"id":7,"type":"hard_brake"}}],"pagination":{"per_page":25,"page_no":1,"total":1}}`)
	}))
	t.Cleanup(ts.Close)

	events, _, err := testClient(ts.URL).Fetch(context.Background(), domain.CategoryHardBrake, 1)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(events) != 1 || events[0].ID == nil || *events[0].ID != 7 {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestClient_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, speedingBody(1, 1, 50))
	}))
	t.Cleanup(ts.Close)

	events, _, err := testClient(ts.URL).Fetch(context.Background(), domain.CategorySpeeding, 1)
	if err != nil {
		t.Fatalf("expected recovery on third attempt, got %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClient_TransientExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(ts.Close)

	_, _, err := testClient(ts.URL).Fetch(context.Background(), domain.CategorySpeeding, 1)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Errorf("expected TransientError, got %T: %v", err, err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClient_PermanentFailsFast(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)

	_, _, err := testClient(ts.URL).Fetch(context.Background(), domain.CategorySpeeding, 1)
	if err == nil {
		t.Fatal("expected error for 401")
	}
	var perm *PermanentError
	if !errors.As(err, &perm) {
		t.Fatalf("expected PermanentError, got %T: %v", err, err)
	}
	if perm.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", perm.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("permanent errors must not be retried: %d attempts", got)
	}
}

func TestClient_FetchAllPaginates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page_no") {
		case "1":
			fmt.Fprint(w, speedingBody(30, 1, 1))
		case "2":
			fmt.Fprint(w, speedingBody(30, 2, 2))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page_no"))
		}
	}))
	t.Cleanup(ts.Close)

	events, err := testClient(ts.URL).FetchAll(context.Background(), domain.CategorySpeeding)
	if err != nil {
		t.Fatalf("fetch all failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events across pages, got %d", len(events))
	}
}

func TestClient_FetchAllHonorsPageCap(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := calls.Add(1)
		// Always claim more pages exist.
		fmt.Fprint(w, speedingBody(1000, int(page), int64(page)))
	}))
	t.Cleanup(ts.Close)

	c := testClient(ts.URL)
	c.maxPages = 2

	events, err := c.FetchAll(context.Background(), domain.CategorySpeeding)
	if err != nil {
		t.Fatalf("fetch all failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected page cap of 2, got %d events", len(events))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestClient_MalformedJSONIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"speeding_events": not-json`)
	}))
	t.Cleanup(ts.Close)

	_, _, err := testClient(ts.URL).Fetch(context.Background(), domain.CategorySpeeding, 1)
	if err == nil {
		t.Fatal("expected error for malformed body")
	}
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Errorf("expected TransientError, got %T: %v", err, err)
	}
}
