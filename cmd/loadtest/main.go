// Команда loadtest нагружает read-path HTTP API: поиск заказов, сводку и дашборд.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type loadMode string

const (
	modeSearch    loadMode = "search"
	modeSummary   loadMode = "summary"
	modeDashboard loadMode = "dashboard"
	modeMixed     loadMode = "mixed"
)

const scenarioKey = "scenario"

type config struct {
	baseURL     string
	total       int
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	customerID  string
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type routeReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Statuses  map[string]int64 `json:"statuses"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

type report struct {
	StartedAt         time.Time              `json:"started_at"`
	DurationSeconds   float64                `json:"duration_seconds"`
	TotalScenarios    int64                  `json:"total_scenarios"`
	FailedScenarios   int64                  `json:"failed_scenarios"`
	ErrorRate         float64                `json:"error_rate"`
	RPS               float64                `json:"rps"`
	ScenarioLatencyMs latencySummary         `json:"scenario_latency_ms"`
	Routes            map[string]routeReport `json:"routes"`
}

type routeStats struct {
	calls     int64
	failed    int64
	statuses  map[string]int64
	latencies []float64
}

type collector struct {
	mu     sync.Mutex
	routes map[string]*routeStats
}

func newCollector() *collector {
	return &collector{routes: make(map[string]*routeStats)}
}

// record учитывает вызов; status — HTTP-код или "error" для транспортных сбоев.
func (c *collector) record(route string, latency time.Duration, status string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, found := c.routes[route]
	if !found {
		stats = &routeStats{statuses: make(map[string]int64)}
		c.routes[route] = stats
	}
	stats.calls++
	if !ok {
		stats.failed++
	}
	stats.statuses[status]++
	stats.latencies = append(stats.latencies, float64(latency.Microseconds())/1000.0)
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		Routes:          make(map[string]routeReport, len(c.routes)),
	}
	for name, stats := range c.routes {
		statuses := make(map[string]int64, len(stats.statuses))
		for status, count := range stats.statuses {
			statuses[status] = count
		}
		rr := routeReport{
			Calls:     stats.calls,
			Success:   stats.calls - stats.failed,
			Failed:    stats.failed,
			ErrorRate: ratio(stats.failed, stats.calls),
			Statuses:  statuses,
			LatencyMs: buildLatencySummary(stats.latencies),
		}
		if name == scenarioKey {
			result.TotalScenarios = rr.Calls
			result.FailedScenarios = rr.Failed
			result.ErrorRate = rr.ErrorRate
			result.ScenarioLatencyMs = rr.LatencyMs
			continue
		}
		result.Routes[name] = rr
	}
	if duration > 0 {
		result.RPS = float64(result.TotalScenarios) / duration.Seconds()
	}
	return result
}

func parseConfig(args []string) (config, error) {
	var (
		cfg  config
		mode string
	)
	fset := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080", "HTTP API base URL")
	fset.IntVar(&cfg.total, "total", 400, "scenarios to execute; with -duration acts as an upper bound when > 0")
	fset.DurationVar(&cfg.duration, "duration", 0, "optional time-based run duration (e.g. 1m)")
	fset.IntVar(&cfg.concurrency, "concurrency", 20, "number of concurrent scenarios")
	fset.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	fset.StringVar(&mode, "mode", string(modeMixed), "load mode: search | summary | dashboard | mixed")
	fset.StringVar(&cfg.customerID, "customer-id", "demo-customer", "customer whose orders are paged in mixed mode")
	fset.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fset.Parse(args); err != nil {
		return config{}, err
	}

	switch m := loadMode(strings.ToLower(strings.TrimSpace(mode))); m {
	case modeSearch, modeSummary, modeDashboard, modeMixed:
		cfg.mode = m
	default:
		return config{}, fmt.Errorf("unsupported mode: %s", mode)
	}

	if _, err := url.ParseRequestURI(cfg.baseURL); err != nil {
		return config{}, fmt.Errorf("invalid base-url: %w", err)
	}
	cfg.baseURL = strings.TrimRight(cfg.baseURL, "/")

	switch {
	case cfg.duration < 0:
		return config{}, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return config{}, errors.New("total must be > 0 when duration is not set")
	case cfg.concurrency <= 0:
		return config{}, errors.New("concurrency must be > 0")
	case cfg.timeout <= 0:
		return config{}, errors.New("timeout must be > 0")
	case cfg.mode == modeMixed && strings.TrimSpace(cfg.customerID) == "":
		return config{}, errors.New("customer-id is required in mixed mode")
	}
	return cfg, nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	result := run(context.Background(), cfg, &http.Client{})
	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}
	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

type loader struct {
	cfg    config
	client *http.Client
	col    *collector
}

// run раздаёт сценарии не более чем concurrency горутинам до исчерпания total или duration.
func run(ctx context.Context, cfg config, client *http.Client) report {
	l := &loader{cfg: cfg, client: client, col: newCollector()}
	startedAt := time.Now()

	// duration ограничивает только раздачу: начатые сценарии дорабатывают.
	dispatch := ctx
	if cfg.duration > 0 {
		var cancel context.CancelFunc
		dispatch, cancel = context.WithTimeout(ctx, cfg.duration)
		defer cancel()
	}

	var g errgroup.Group
	g.SetLimit(cfg.concurrency)
	for i := 0; cfg.total <= 0 || i < cfg.total; i++ {
		if dispatch.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			l.scenario(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	return l.col.buildReport(startedAt, time.Since(startedAt))
}

func (l *loader) scenario(ctx context.Context, index int) {
	start := time.Now()
	status := "ok"
	ok := true
	for _, target := range l.targets(index) {
		if err := l.get(ctx, target.route, target.path); err != nil {
			status, ok = "failed", false
			break
		}
	}
	l.col.record(scenarioKey, time.Since(start), status, ok)
}

type target struct {
	route string
	path  string
}

func (l *loader) targets(index int) []target {
	search := target{route: "GET /orders", path: "/api/v1/orders?page=0&size=20&sort=createdAt&direction=desc"}
	summary := target{route: "GET /orders/summary", path: "/api/v1/orders/summary"}
	dashboard := target{route: "GET /admin/dashboard/overview", path: "/api/v1/admin/dashboard/overview"}

	switch l.cfg.mode {
	case modeSearch:
		return []target{search}
	case modeSummary:
		return []target{summary}
	case modeDashboard:
		return []target{dashboard}
	}

	switch index % 4 {
	case 0:
		return []target{search}
	case 1:
		return []target{{route: "GET /orders/status/{status}", path: "/api/v1/orders/status/PENDING?size=10"}}
	case 2:
		return []target{{route: "GET /customers/{customerID}/orders", path: "/api/v1/customers/" + url.PathEscape(l.cfg.customerID) + "/orders?page=0&size=10"}}
	default:
		return []target{summary, dashboard}
	}
}

func (l *loader) get(ctx context.Context, route, path string) error {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		l.col.record(route, time.Since(start), "error", false)
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	ok := resp.StatusCode < http.StatusBadRequest
	l.col.record(route, time.Since(start), strconv.Itoa(resp.StatusCode), ok)
	if !ok {
		return fmt.Errorf("%s: unexpected status %d", route, resp.StatusCode)
	}
	return nil
}

func writeJSONReport(path string, result report) error {
	cleanPath := filepath.Clean(path)
	if cleanPath == "." || cleanPath == string(filepath.Separator) {
		return errors.New("output path must point to a file")
	}

	// #nosec G304 -- путь отчёта задаётся явно флагом CLI.
	file, err := os.Create(cleanPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printReport(out io.Writer, result report, cfg config) {
	_, _ = fmt.Fprintln(out, "Load test summary")
	_, _ = fmt.Fprintf(out, "mode=%s total=%d failed=%d error_rate=%.4f\n",
		cfg.mode, result.TotalScenarios, result.FailedScenarios, result.ErrorRate)
	_, _ = fmt.Fprintf(out, "duration=%.2fs rps=%.2f\n", result.DurationSeconds, result.RPS)
	_, _ = fmt.Fprintf(out, "scenario latency ms: min=%.2f avg=%.2f p50=%.2f p95=%.2f p99=%.2f max=%.2f\n",
		result.ScenarioLatencyMs.Min,
		result.ScenarioLatencyMs.Avg,
		result.ScenarioLatencyMs.P50,
		result.ScenarioLatencyMs.P95,
		result.ScenarioLatencyMs.P99,
		result.ScenarioLatencyMs.Max,
	)

	routes := make([]string, 0, len(result.Routes))
	for name := range result.Routes {
		routes = append(routes, name)
	}
	sort.Strings(routes)
	for _, name := range routes {
		stats := result.Routes[name]
		_, _ = fmt.Fprintf(out, "%s: calls=%d failed=%d error_rate=%.4f p95=%.2fms\n",
			name, stats.Calls, stats.Failed, stats.ErrorRate, stats.LatencyMs.P95)
	}
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, value := range sorted {
		sum += value
	}
	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

// percentile интерполирует линейно между соседними рангами отсортированной выборки.
func percentile(sorted []float64, p float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

func ratio(failed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
