// Package metrics defines and registers all custom Prometheus metrics of the
// SGIRS portal. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default Prometheus registry at package init via
// promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sgirs"

// ── Route guard ───────────────────────────────────────────────────────────────

// GuardRedirectsTotal counts navigations the route guard redirected.
// Label:
//   - reason: "unauthenticated", "role_mismatch" or "authenticated_auth_page"
var GuardRedirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_redirects_total",
		Help:      "Total number of page requests redirected by the route guard.",
	},
	[]string{"reason"},
)

// ── Survey wizard ─────────────────────────────────────────────────────────────

// WizardSavesTotal counts save-for-later attempts of the wizard.
// Labels:
//   - operation: "create" or "patch"
//   - result: "ok" or "error"
var WizardSavesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wizard_saves_total",
		Help:      "Total number of wizard saves, by backend operation and result.",
	},
	[]string{"operation", "result"},
)

// WizardAdvanceTotal counts "next step" requests.
// Label:
//   - result: "advanced" or "blocked"
var WizardAdvanceTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wizard_advance_total",
		Help:      "Total number of wizard advance requests, by outcome.",
	},
	[]string{"result"},
)

// BackendRequestDuration measures calls from the wizard to the REST API.
// Labels:
//   - endpoint: logical operation (e.g. "verify", "create", "upload")
//   - outcome: "ok" or "error"
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of REST API calls issued by the survey wizard.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint", "outcome"},
)

// ── Form sessions ─────────────────────────────────────────────────────────────

// FormsCompletedTotal counts form sessions closed as completed.
var FormsCompletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forms_completed_total",
		Help:      "Total number of form sessions completed.",
	},
)

// FormConflictsTotal counts requests refused because of the session state.
// Label:
//   - operation: "create" (duplicate) or "complete" (already completed)
var FormConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "form_conflicts_total",
		Help:      "Total number of form operations rejected with a conflict.",
	},
	[]string{"operation"},
)

// AttachmentsTotal counts uploaded files.
// Label:
//   - result: "stored", "rejected" or "error"
var AttachmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attachments_total",
		Help:      "Total number of attachment uploads, by result.",
	},
	[]string{"result"},
)

// ── Audit trail ───────────────────────────────────────────────────────────────

// AuditQueueDepth tracks events waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of form audit events pending per worker.",
	},
	[]string{"worker_id"},
)

// AuditEventsTotal counts audit events by fate.
// Label:
//   - result: "ok", "error" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of form audit events written, by result.",
	},
	[]string{"result"},
)
