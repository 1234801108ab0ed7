package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MarketMetrics counts the lifecycle events of the marketplace core.
type MarketMetrics struct {
	ListingsSubmittedTotal prometheus.Counter
	ListingsModeratedTotal *prometheus.CounterVec
	ListingsWithdrawnTotal prometheus.Counter

	OrdersCreatedTotal   prometheus.Counter
	OrdersCancelledTotal *prometheus.CounterVec
	OrdersClosedTotal    prometheus.Counter

	ReviewsCreatedTotal prometheus.Counter
}

func NewMarketMetrics() *MarketMetrics {
	return &MarketMetrics{
		ListingsSubmittedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "listings_submitted_total",
			Help: "Listings submitted for moderation.",
		}),
		ListingsModeratedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_moderated_total",
			Help: "Moderation decisions by outcome (approved, rejected, removed).",
		}, []string{"decision"}),
		ListingsWithdrawnTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "listings_withdrawn_total",
			Help: "Listings withdrawn by their seller.",
		}),
		OrdersCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created by buy-now purchases.",
		}),
		OrdersCancelledTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "Cancelled orders by cancelling party.",
		}, []string{"by"}),
		OrdersClosedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orders_closed_total",
			Help: "Orders closed after the mutual payment handshake.",
		}),
		ReviewsCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reviews_created_total",
			Help: "Reviews created on closed orders.",
		}),
	}
}

func (m *MarketMetrics) RecordModeration(decision string) {
	if m == nil {
		return
	}
	m.ListingsModeratedTotal.WithLabelValues(decision).Inc()
}

func (m *MarketMetrics) RecordListingSubmitted() {
	if m == nil {
		return
	}
	m.ListingsSubmittedTotal.Inc()
}

func (m *MarketMetrics) RecordListingWithdrawn() {
	if m == nil {
		return
	}
	m.ListingsWithdrawnTotal.Inc()
}

func (m *MarketMetrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreatedTotal.Inc()
}

func (m *MarketMetrics) RecordOrderCancelled(by string) {
	if m == nil {
		return
	}
	m.OrdersCancelledTotal.WithLabelValues(by).Inc()
}

func (m *MarketMetrics) RecordOrderClosed() {
	if m == nil {
		return
	}
	m.OrdersClosedTotal.Inc()
}

func (m *MarketMetrics) RecordReviewCreated() {
	if m == nil {
		return
	}
	m.ReviewsCreatedTotal.Inc()
}
