package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationsCreated counts accepted reservations per bookable kind.
	ReservationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "created_total",
			Help:      "The total number of reservations created",
		},
		[]string{"kind"},
	)

	// EligibilityRejections counts submissions refused by the eligibility policy.
	EligibilityRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "rejected_total",
			Help:      "The total number of submissions rejected by eligibility checks",
		},
		[]string{"code"},
	)

	// StatusTransitions counts applied status changes.
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "transitions_total",
			Help:      "The total number of reservation status transitions",
		},
		[]string{"from", "to", "actor"},
	)

	// RateLimited counts requests refused by the token bucket.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "http",
			Name:      "rate_limited_total",
			Help:      "The total number of requests refused by the rate limiter",
		},
		[]string{"route"},
	)

	// CacheLookups counts catalog cache hits and misses.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "http",
			Name:      "cache_lookups_total",
			Help:      "The total number of response cache lookups",
		},
		[]string{"result"},
	)

	// EventsPublished counts reservation events handed to the broker.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "published_total",
			Help:      "The total number of reservation events published",
		},
		[]string{"type", "outcome"},
	)

	// LiveClients is the number of connected admin live feed sockets.
	LiveClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hub",
			Name:      "clients",
			Help:      "Connected admin live feed clients",
		},
	)
)
