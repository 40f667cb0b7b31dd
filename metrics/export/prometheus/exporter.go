package prometheus

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/makolaconnect/makola"
	"github.com/makolaconnect/makola/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() makola.MetricsSnapshot
	AuditDropped() uint64
}

// liveSessionSource is implemented by *makola.Engine; other sources simply
// omit the gauge.
type liveSessionSource interface {
	LiveSessions() int
}

// Exporter serves engine metrics at a scrape endpoint.
type Exporter struct {
	source metricsSource
}

// New reads from engine.
func New(engine *makola.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewFromSource reads from any snapshot source.
func NewFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics as exposition text. It is empty while
// metrics are disabled and nothing was dropped.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snap := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return ""
	}

	w := &textWriter{}
	for _, def := range internaldefs.CounterDefs {
		w.header(def.Name, def.Help, "counter")
		w.sample(def.Name, "", uintValue(snap.Counters[def.ID]))
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snap.Histograms[def.ID]
		if !ok {
			continue
		}
		w.latency(def.Name, def.Help, internaldefs.NormalizeBuckets(raw), snap.HistogramSums[def.ID])
	}

	if live, ok := p.source.(liveSessionSource); ok {
		w.header("makola_session_live_clients", "Client session stores held in memory.", "gauge")
		w.sample("makola_session_live_clients", "", strconv.Itoa(live.LiveSessions()))
	}

	w.header("makola_audit_dropped_total", "Audit events dropped because the dispatcher queue was full.", "counter")
	w.sample("makola_audit_dropped_total", "", uintValue(dropped))

	return w.String()
}

type textWriter struct {
	strings.Builder
}

func (w *textWriter) header(name, help, kind string) {
	w.WriteString("# HELP " + name + " " + escapeHelp(help) + "\n")
	w.WriteString("# TYPE " + name + " " + kind + "\n")
}

func (w *textWriter) sample(name, labels, value string) {
	w.WriteString(name)
	if labels != "" {
		w.WriteString("{" + labels + "}")
	}
	w.WriteString(" " + value + "\n")
}

// latency writes a seconds histogram from per-bucket counts and the summed
// duration of every observation.
func (w *textWriter) latency(name, help string, raw [8]uint64, sum time.Duration) {
	w.header(name, help, "histogram")
	cumulative := internaldefs.CumulativeBuckets(raw)
	for i, le := range internaldefs.HistogramBounds {
		w.sample(name+"_bucket", `le="`+le+`"`, uintValue(cumulative[i]))
	}
	w.sample(name+"_sum", "", strconv.FormatFloat(sum.Seconds(), 'g', -1, 64))
	w.sample(name+"_count", "", uintValue(cumulative[len(cumulative)-1]))
}

func uintValue(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
