// Package ilpmetrics wraps the incoming and outgoing service boundaries
// with Prometheus counters and a duration histogram, labeled by asset code
// and routing relation.
package ilpmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dora-gt/interledger-go/ilppacket"
	"github.com/dora-gt/interledger-go/ilpservice"
)

const namespace = "ilp"

// Metrics holds the counter and histogram vectors shared by the incoming
// and outgoing wrappers. Register it with a prometheus.Registerer once at
// startup; WrapIncoming/WrapOutgoing then wrap a service chain with it.
type Metrics struct {
	incomingPrepare  *prometheus.CounterVec
	incomingFulfill  *prometheus.CounterVec
	incomingReject   *prometheus.CounterVec
	incomingDuration *prometheus.HistogramVec

	outgoingPrepare  *prometheus.CounterVec
	outgoingFulfill  *prometheus.CounterVec
	outgoingReject   *prometheus.CounterVec
	outgoingDuration *prometheus.HistogramVec
}

// NewMetrics builds an unregistered Metrics. Call Register to expose it.
func NewMetrics() *Metrics {
	incomingLabels := []string{"from_asset_code", "from_routing_relation"}
	outgoingLabels := []string{
		"from_asset_code", "to_asset_code",
		"from_routing_relation", "to_routing_relation",
	}

	newCounter := func(name, help string, labels []string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}

	newHistogram := func(name, help string, labels []string) *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			// Buckets in nanoseconds: 100us .. ~7min.
			Buckets: prometheus.ExponentialBuckets(1e5, 4, 12),
		}, labels)
	}

	return &Metrics{
		incomingPrepare: newCounter(
			"requests_incoming_prepare_total", "incoming prepares received", incomingLabels,
		),
		incomingFulfill: newCounter(
			"requests_incoming_fulfill_total", "incoming requests fulfilled", incomingLabels,
		),
		incomingReject: newCounter(
			"requests_incoming_reject_total", "incoming requests rejected", incomingLabels,
		),
		incomingDuration: newHistogram(
			"requests_incoming_duration_nanoseconds", "incoming request duration", incomingLabels,
		),
		outgoingPrepare: newCounter(
			"requests_outgoing_prepare_total", "outgoing prepares sent", outgoingLabels,
		),
		outgoingFulfill: newCounter(
			"requests_outgoing_fulfill_total", "outgoing requests fulfilled", outgoingLabels,
		),
		outgoingReject: newCounter(
			"requests_outgoing_reject_total", "outgoing requests rejected", outgoingLabels,
		),
		outgoingDuration: newHistogram(
			"requests_outgoing_duration_nanoseconds", "outgoing request duration", outgoingLabels,
		),
	}
}

// Register registers every collector in m with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.incomingPrepare, m.incomingFulfill, m.incomingReject, m.incomingDuration,
		m.outgoingPrepare, m.outgoingFulfill, m.outgoingReject, m.outgoingDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}

func routingRelation[A ilpservice.Account](account A) string {
	if ccp, ok := any(account).(ilpservice.CcpRoutingAccount); ok {
		return ccp.RoutingRelation().String()
	}

	return ilpservice.RelationNonRouting.String()
}

// WrapIncoming instruments inner with m's incoming-side counters and
// duration histogram.
func WrapIncoming[A ilpservice.Account](
	inner ilpservice.IncomingService[A],
	m *Metrics,
) ilpservice.IncomingService[A] {

	return ilpservice.WrapIncoming[A](inner, func(
		ctx context.Context,
		request ilpservice.IncomingRequest[A],
		reqCtx ilpservice.RequestContext,
		next ilpservice.IncomingService[A],
	) (*ilppacket.Fulfill, error) {

		labels := prometheus.Labels{
			"from_asset_code":       request.From.AssetCode(),
			"from_routing_relation": routingRelation[A](request.From),
		}

		start := time.Now()
		m.incomingPrepare.With(labels).Inc()

		fulfill, err := next.HandleRequest(ctx, request, reqCtx)

		m.incomingDuration.With(labels).Observe(float64(time.Since(start).Nanoseconds()))
		if err != nil {
			m.incomingReject.With(labels).Inc()
		} else {
			m.incomingFulfill.With(labels).Inc()
		}

		return fulfill, err
	})
}

// WrapOutgoing instruments inner with m's outgoing-side counters and
// duration histogram.
func WrapOutgoing[A ilpservice.Account](
	inner ilpservice.OutgoingService[A],
	m *Metrics,
) ilpservice.OutgoingService[A] {

	return ilpservice.WrapOutgoing[A](inner, func(
		ctx context.Context,
		request ilpservice.OutgoingRequest[A],
		reqCtx ilpservice.RequestContext,
		next ilpservice.OutgoingService[A],
	) (*ilppacket.Fulfill, error) {

		labels := prometheus.Labels{
			"from_asset_code":       request.From.AssetCode(),
			"to_asset_code":         request.To.AssetCode(),
			"from_routing_relation": routingRelation[A](request.From),
			"to_routing_relation":   routingRelation[A](request.To),
		}

		start := time.Now()
		m.outgoingPrepare.With(labels).Inc()

		fulfill, err := next.SendRequest(ctx, request, reqCtx)

		m.outgoingDuration.With(labels).Observe(float64(time.Since(start).Nanoseconds()))
		if err != nil {
			m.outgoingReject.With(labels).Inc()
		} else {
			m.outgoingFulfill.With(labels).Inc()
		}

		return fulfill, err
	})
}
