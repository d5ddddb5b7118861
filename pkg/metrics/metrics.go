package metrics

// Name+label counters and latency summaries over a swappable prometheus
// registry. Vectors are created lazily on first use of a name; the label key
// set of that first call is fixed for the name from then on. Recording never
// panics: a label mismatch drops the sample instead of taking the process
// down with it.

import (
    "bytes"
    "sort"
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/common/expfmt"
)

var std = newStore()

type store struct {
    mu        sync.Mutex
    reg       *prometheus.Registry
    counters  map[string]*prometheus.CounterVec
    summaries map[string]*prometheus.SummaryVec
}

func newStore() *store {
    return &store{
        reg:       prometheus.NewRegistry(),
        counters:  make(map[string]*prometheus.CounterVec),
        summaries: make(map[string]*prometheus.SummaryVec),
    }
}

func labelKeys(labels map[string]string) []string {
    keys := make([]string, 0, len(labels))
    for k := range labels { keys = append(keys, k) }
    sort.Strings(keys)
    return keys
}

// Inc increments the counter identified by name and labels.
func Inc(name string, labels map[string]string) {
    std.mu.Lock()
    defer std.mu.Unlock()
    c, ok := std.counters[name]
    if !ok {
        c = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, labelKeys(labels))
        if err := std.reg.Register(c); err != nil { return }
        std.counters[name] = c
    }
    m, err := c.GetMetricWith(prometheus.Labels(labels))
    if err != nil { return }
    m.Inc()
}

// ObserveSummary records v into the summary identified by name and labels.
func ObserveSummary(name string, labels map[string]string, v float64) {
    std.mu.Lock()
    defer std.mu.Unlock()
    s, ok := std.summaries[name]
    if !ok {
        s = prometheus.NewSummaryVec(prometheus.SummaryOpts{
            Name:       name,
            Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
        }, labelKeys(labels))
        if err := std.reg.Register(s); err != nil { return }
        std.summaries[name] = s
    }
    m, err := s.GetMetricWith(prometheus.Labels(labels))
    if err != nil { return }
    m.Observe(v)
}

// Reset drops every registered metric. Test hook.
func Reset() {
    std.mu.Lock()
    defer std.mu.Unlock()
    std.reg = prometheus.NewRegistry()
    std.counters = make(map[string]*prometheus.CounterVec)
    std.summaries = make(map[string]*prometheus.SummaryVec)
}

// DumpProm renders the current metrics in Prometheus text exposition format.
func DumpProm() string {
    std.mu.Lock()
    reg := std.reg
    std.mu.Unlock()

    mfs, err := reg.Gather()
    if err != nil { return "" }
    var buf bytes.Buffer
    enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
    for _, mf := range mfs {
        if err := enc.Encode(mf); err != nil { return buf.String() }
    }
    return buf.String()
}
