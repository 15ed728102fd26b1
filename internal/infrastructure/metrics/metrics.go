package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the booking engine.
type Metrics struct {
	// Booking metrics
	TransactionsBooked prometheus.Counter
	BookingErrors      *prometheus.CounterVec
	BookingDuration    prometheus.Histogram
	PostingsBooked     prometheus.Counter
	LotsReduced        prometheus.Counter

	// Directive metrics
	AccountsOpened      prometheus.Counter
	AccountsClosed      prometheus.Counter
	CommoditiesDeclared prometheus.Counter
	PadsArmed           prometheus.Counter
	PadsMaterialized    prometheus.Counter
	PricesRecorded      prometheus.Counter
	AssertionsChecked   prometheus.Counter
	AssertionsFailed    prometheus.Counter

	// Summary metrics
	SummariesBuilt  prometheus.Counter
	SummaryDuration prometheus.Histogram

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   prometheus.Counter
}

// New creates all Prometheus metrics and registers them with the default
// registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all Prometheus metrics registered against reg. A nil reg
// leaves the collectors unregistered; tests use that to avoid duplicate
// registration across cases.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Booking metrics
		TransactionsBooked: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_transactions_booked_total",
			Help: "Total number of transactions booked and applied",
		}),
		BookingErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookd_booking_errors_total",
				Help: "Total number of rejected transactions by diagnostic kind",
			},
			[]string{"kind"},
		),
		BookingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookd_booking_duration_seconds",
			Help:    "Duration of book-and-apply operations",
			Buckets: prometheus.DefBuckets,
		}),
		PostingsBooked: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_postings_booked_total",
			Help: "Total number of resolved postings applied to inventories",
		}),
		LotsReduced: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_lots_reduced_total",
			Help: "Total number of lot reductions realized by bookings",
		}),

		// Directive metrics
		AccountsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),
		AccountsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_accounts_closed_total",
			Help: "Total number of accounts closed",
		}),
		CommoditiesDeclared: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_commodities_declared_total",
			Help: "Total number of commodity declarations",
		}),
		PadsArmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_pads_armed_total",
			Help: "Total number of pads armed",
		}),
		PadsMaterialized: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_pads_materialized_total",
			Help: "Total number of pads materialized by balance assertions",
		}),
		PricesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_prices_recorded_total",
			Help: "Total number of explicit price points recorded",
		}),
		AssertionsChecked: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_assertions_checked_total",
			Help: "Total number of balance assertions checked",
		}),
		AssertionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_assertions_failed_total",
			Help: "Total number of balance assertions that did not hold",
		}),

		// Summary metrics
		SummariesBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_summaries_built_total",
			Help: "Total number of period summaries built",
		}),
		SummaryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookd_summary_duration_seconds",
			Help:    "Duration of period summarization",
			Buckets: prometheus.DefBuckets,
		}),

		// Event metrics
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookd_events_published_total",
				Help: "Total number of ledger events published by type",
			},
			[]string{"event_type"},
		),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookd_events_dropped_total",
			Help: "Total number of ledger events dropped on publish failure",
		}),
	}
}
