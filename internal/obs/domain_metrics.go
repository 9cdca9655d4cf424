package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// RecalculationTotal counts booking recalculation runs by outcome.
	RecalculationTotal *prometheus.CounterVec
	// RecalculationDuration records recalculation latency in milliseconds.
	RecalculationDuration prometheus.Histogram
	// ConsistencyCheckFailures counts mismatches between the two accommodation total paths.
	ConsistencyCheckFailures prometheus.Counter
	// VoucherRejectionTotal counts voucher validation rejections by reason.
	VoucherRejectionTotal *prometheus.CounterVec
	// QuoteTotal counts quote computations by outcome.
	QuoteTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		RecalculationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_recalculation_total",
			Help:      "Count of booking recalculation runs by outcome.",
		}, []string{"result"})
		RecalculationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_recalculation_duration_ms",
			Help:      "Latency of booking recalculation transactions in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		})
		ConsistencyCheckFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_consistency_failures_total",
			Help:      "Mismatches between the nightly-sum and direct accommodation totals.",
		})
		VoucherRejectionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voucher_rejection_total",
			Help:      "Count of voucher validation rejections by reason.",
		}, []string{"reason"})
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quote_total",
			Help:      "Count of stay quote computations by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, RecalculationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RecalculationTotal = v
			}
		})
		mustRegisterCollector(reg, RecalculationDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				RecalculationDuration = v
			}
		})
		mustRegisterCollector(reg, ConsistencyCheckFailures, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ConsistencyCheckFailures = v
			}
		})
		mustRegisterCollector(reg, VoucherRejectionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				VoucherRejectionTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
