package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/service/httpapi"
	"github.com/vladislavdragonenkov/cafecart/internal/service/mirror"
	"github.com/vladislavdragonenkov/cafecart/internal/storage/memory"
)

func newCartServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc := mirror.NewService(memory.NewMirrorRepository())
	handler := httpapi.NewHandler(svc, httpapi.Config{
		Session: httpapi.SessionConfig{Secret: "loadtest-secret-loadtest-secret!"},
	}, nil, nil, log.WithField("test", "loadtest"))
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig(nil)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if cfg.total != 400 || cfg.concurrency != 40 || cfg.items != 3 || cfg.totalSet {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	cfg, err = parseConfig([]string{"-url=http://cafe:8080", "-duration=1m", "-total=10", "-items=5"})
	if err != nil {
		t.Fatalf("overrides: %v", err)
	}
	if cfg.baseURL != "http://cafe:8080" || cfg.duration != time.Minute || !cfg.totalSet || cfg.items != 5 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}

	invalid := [][]string{
		{"-url= "},
		{"-duration=-1s"},
		{"-total=0"},
		{"-duration=1s", "-total=0"},
		{"-concurrency=0"},
		{"-timeout=0s"},
		{"-items=0"},
		{"-price=0"},
		{"-unknown"},
	}
	for _, args := range invalid {
		if _, err := parseConfig(args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestDispatchJobs(t *testing.T) {
	t.Run("count mode", func(t *testing.T) {
		jobs := make(chan int, 16)
		dispatchJobs(jobs, config{total: 5})

		var got []int
		for v := range jobs {
			got = append(got, v)
		}
		if !slices.Equal(got, []int{0, 1, 2, 3, 4}) {
			t.Fatalf("unexpected jobs sequence: %v", got)
		}
	})

	t.Run("duration with explicit max total", func(t *testing.T) {
		jobs := make(chan int, 16)
		dispatchJobs(jobs, config{duration: time.Second, total: 3, totalSet: true})
		count := 0
		for range jobs {
			count++
		}
		if count != 3 {
			t.Fatalf("expected 3 jobs, got %d", count)
		}
	})
}

func TestCollectorAndReport(t *testing.T) {
	c := newCollector()
	c.record(methodScenario, 10*time.Millisecond, codeOK)
	c.record(methodScenario, 20*time.Millisecond, "500")
	c.record(methodSaveCart, 15*time.Millisecond, codeOK)

	r := c.buildReport(time.Now(), 2*time.Second)
	if r.TotalScenarios != 2 || r.FailedScenarios != 1 || r.ErrorRate != 0.5 {
		t.Fatalf("unexpected report totals: %+v", r)
	}
	if r.RPS != 1 {
		t.Fatalf("expected rps 1, got %f", r.RPS)
	}
	if r.Methods[methodScenario].Codes["500"] != 1 {
		t.Fatalf("unexpected codes: %+v", r.Methods[methodScenario].Codes)
	}
	if _, ok := r.Methods[methodSaveCart]; !ok {
		t.Fatal("expected SaveCart stats in report")
	}
}

func TestUtilityFunctions(t *testing.T) {
	if got := statusCode(0, errors.New("dial")); got != codeTransport {
		t.Fatalf("unexpected transport code: %s", got)
	}
	if got := statusCode(http.StatusOK, errors.New("malformed")); got != codeMismatch {
		t.Fatalf("unexpected malformed code: %s", got)
	}
	if got := statusCode(http.StatusTooManyRequests, errors.New("limited")); got != "429" {
		t.Fatalf("unexpected status code: %s", got)
	}

	if got := ratio(1, 4); got != 0.25 {
		t.Fatalf("ratio mismatch: %f", got)
	}
	if got := ratio(1, 0); got != 0 {
		t.Fatalf("ratio with zero total must be 0, got %f", got)
	}

	summary := buildLatencySummary([]float64{10, 20, 30, 40})
	if summary.Min != 10 || summary.Max != 40 || summary.Avg != 25 || summary.P50 != 25 {
		t.Fatalf("unexpected latency summary: %+v", summary)
	}
	if got := buildLatencySummary(nil); got != (latencySummary{}) {
		t.Fatalf("expected empty summary, got %+v", got)
	}

	if got := runTarget(config{total: 50}); got != "count:50" {
		t.Fatalf("unexpected run target: %s", got)
	}
	if got := runTarget(config{duration: 2 * time.Second, total: 10, totalSet: true}); got != "duration:2s,max-total:10" {
		t.Fatalf("unexpected capped duration run target: %s", got)
	}
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := writeJSONReport(path, report{TotalScenarios: 2, SuccessScenarios: 2}); err != nil {
		t.Fatalf("writeJSONReport error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.TotalScenarios != 2 || decoded.SuccessScenarios != 2 {
		t.Fatalf("unexpected decoded report: %+v", decoded)
	}

	if err := writeJSONReport("../escape.json", report{}); err == nil {
		t.Fatal("expected error for path outside current directory")
	}
}

func TestRunLoadAgainstCartServer(t *testing.T) {
	srv := newCartServer(t)

	cfg, err := parseConfig([]string{"-url=" + srv.URL, "-total=12", "-concurrency=4", "-items=3"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	result := runLoad(cfg)
	if result.TotalScenarios != 12 || result.FailedScenarios != 0 {
		t.Fatalf("unexpected scenario totals: %+v", result)
	}
	if calls := result.Methods[methodSaveCart].Calls; calls != 36 {
		t.Fatalf("expected 36 save-cart calls, got %d", calls)
	}
	if calls := result.Methods[methodGetCart].Success; calls != 12 {
		t.Fatalf("expected 12 successful cart reads, got %d", calls)
	}

	var out bytes.Buffer
	printReport(&out, result, cfg)
	for _, want := range []string{"Load test summary", "total=12 success=12 failed=0", "SaveCart: calls=36", "GetCart: calls=12"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("report missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunLoadCountsServerFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"db down"}`))
	}))
	defer srv.Close()

	result := runLoad(config{baseURL: srv.URL, total: 3, concurrency: 2, timeout: time.Second, items: 2, price: 1})
	if result.FailedScenarios != 3 {
		t.Fatalf("expected all scenarios to fail, got %+v", result)
	}
	if got := result.Methods[methodSaveCart].Codes["500"]; got != 3 {
		t.Fatalf("expected one failed save per scenario, got %d", got)
	}
}
