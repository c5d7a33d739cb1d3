package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the platform's Prometheus instruments. Each Metrics owns its
// own registry so repeated construction (tests, embedded use) never trips
// duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	LeadsCreated   *prometheus.CounterVec // by status: new, spam, duplicate
	LeadsRouted    *prometheus.CounterVec // by outcome: routed, closed
	OffersAccepted prometheus.Counter
	OffersDeclined prometheus.Counter
	OffersExpired  prometheus.Counter

	WalletCharges     *prometheus.CounterVec // by reference_type
	WalletChargeMinor *prometheus.CounterVec // amount charged, by reference_type
	WalletRefunds     prometheus.Counter
	WalletRefundMinor prometheus.Counter
	InsufficientFunds prometheus.Counter

	CallsIngested   prometheus.Counter
	CallsQualified  *prometheus.CounterVec // by result: billed, below_minimum
	DisputesOpened  prometheus.Counter
	DisputesClosed  *prometheus.CounterVec // by outcome
	PaymentsSettled *prometheus.CounterVec // by status: completed, failed

	SweepRuns     *prometheus.CounterVec   // by job
	SweepDuration *prometheus.HistogramVec // by job

	HTTPRequests *prometheus.CounterVec   // by method, route, status
	HTTPDuration *prometheus.HistogramVec // by method, route
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		LeadsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmarket_leads_created_total",
			Help: "Total lead intake submissions by resulting status",
		}, []string{"status"}),
		LeadsRouted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmarket_leads_routed_total",
			Help: "Total routing runs by outcome",
		}, []string{"outcome"}),
		OffersAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadmarket_offers_accepted_total",
			Help: "Total lead offers accepted",
		}),
		OffersDeclined: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadmarket_offers_declined_total",
			Help: "Total lead offers declined",
		}),
		OffersExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadmarket_offers_expired_total",
			Help: "Total lead offers expired by the sweep",
		}),

		WalletCharges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmarket_wallet_charges_total",
			Help: "Total wallet charges by reference type",
		}, []string{"reference_type"}),
		WalletChargeMinor: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmarket_wallet_charge_minor_total",
			Help: "Total amount charged in minor units by reference type",
		}, []string{"reference_type"}),
		WalletRefunds: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadmarket_wallet_refunds_total",
			Help: "Total wallet refunds",
		}),
		WalletRefundMinor: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadmarket_wallet_refund_minor_total",
			Help: "Total amount refunded in minor units",
		}),
		InsufficientFunds: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadmarket_wallet_insufficient_funds_total",
			Help: "Total charges rejected for insufficient funds",
		}),

		CallsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadmarket_calls_ingested_total",
			Help: "Total call webhook events ingested",
		}),
		CallsQualified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmarket_calls_qualified_total",
			Help: "Total call qualification decisions by result",
		}, []string{"result"}),
		DisputesOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadmarket_disputes_opened_total",
			Help: "Total billing disputes opened",
		}),
		DisputesClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmarket_disputes_closed_total",
			Help: "Total billing disputes resolved by outcome",
		}, []string{"outcome"}),
		PaymentsSettled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmarket_payments_settled_total",
			Help: "Total checkout payments settled by status",
		}, []string{"status"}),

		SweepRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmarket_sweep_runs_total",
			Help: "Total background sweep executions by job",
		}, []string{"job"}),
		SweepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadmarket_sweep_duration_seconds",
			Help:    "Duration of background sweep executions",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmarket_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadmarket_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
