package internaldefs

import (
	"github.com/makolaconnect/makola"
)

type CounterDef struct {
	ID   makola.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   makola.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: makola.MetricHydrateRestored, Name: "makola_session_hydrate_restored_total", Help: "Sessions restored from persistence."},
	{ID: makola.MetricHydrateEmpty, Name: "makola_session_hydrate_empty_total", Help: "Hydrations that found no persisted session."},
	{ID: makola.MetricHydratePurged, Name: "makola_session_hydrate_purged_total", Help: "Malformed or incomplete persisted sessions discarded."},
	{ID: makola.MetricLoginSuccess, Name: "makola_login_success_total", Help: "Successful logins."},
	{ID: makola.MetricLoginFailure, Name: "makola_login_failure_total", Help: "Rejected login attempts."},
	{ID: makola.MetricLoginThrottled, Name: "makola_login_throttled_total", Help: "Login attempts refused by the failed-login throttle."},
	{ID: makola.MetricLogout, Name: "makola_logout_total", Help: "Logout operations."},
	{ID: makola.MetricPersistFailure, Name: "makola_session_persist_failure_total", Help: "Failed session persistence operations."},
	{ID: makola.MetricGuardRender, Name: "makola_guard_render_total", Help: "Protected views rendered."},
	{ID: makola.MetricGuardRedirectLogin, Name: "makola_guard_redirect_login_total", Help: "Unauthenticated visitors redirected to login."},
	{ID: makola.MetricGuardRedirectRole, Name: "makola_guard_redirect_role_total", Help: "Users redirected to their role home."},
	{ID: makola.MetricUploadSuccess, Name: "makola_media_upload_success_total", Help: "Media batches uploaded."},
	{ID: makola.MetricUploadFailure, Name: "makola_media_upload_failure_total", Help: "Media batches rejected or failed."},
	{ID: makola.MetricMediaDeleted, Name: "makola_media_deleted_total", Help: "Media objects deleted."},
}

var HistogramDefs = []HistogramDef{
	{ID: makola.MetricPersistLatency, Name: "makola_session_persist_latency_seconds", Help: "Session persistence round-trip latency."},
}

var HistogramBounds = []string{
	"0.001",
	"0.0025",
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds made safe for instrument names.
var HistogramBoundSuffix = []string{
	"0_001",
	"0_0025",
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the eight fixed buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into le-style running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, n := range raw {
		running += n
		out[i] = running
	}
	return out
}
