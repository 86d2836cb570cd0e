// Package metrics registers the prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CompaniesGenerated counts records produced by the generator, labelled
	// by the pipeline stage that produced them (generate or expand).
	CompaniesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "emlak",
		Name:      "companies_generated_total",
		Help:      "Company records produced by the generator.",
	}, []string{"stage"})

	// EmailsEnriched counts emails attached to records, labelled by how the
	// address was obtained (scraped or generated).
	EmailsEnriched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "emlak",
		Name:      "emails_enriched_total",
		Help:      "Emails attached to company records.",
	}, []string{"method"})

	// EmailsVerified counts verification outcomes, labelled "200" or "BAD".
	EmailsVerified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "emlak",
		Name:      "emails_verified_total",
		Help:      "Email verification outcomes.",
	}, []string{"result"})

	// CSVRowsImported counts rows accepted through CSV uploads.
	CSVRowsImported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emlak",
		Name:      "csv_rows_imported_total",
		Help:      "CSV rows accepted during imports.",
	})

	// VerificationDuration observes how long a single email verification takes.
	VerificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "emlak",
		Name:      "verification_duration_seconds",
		Help:      "Duration of single email verifications.",
		Buckets:   prometheus.DefBuckets,
	})
)
