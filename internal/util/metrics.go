package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VotesAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "votes_accepted_total",
		Help: "Total number of votes accepted by the ledger",
	})

	VotesDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "votes_duplicate_total",
		Help: "Total number of duplicate votes rejected",
	})

	VotesDuplicateLocalTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "votes_duplicate_local_total",
		Help: "Total number of duplicate votes rejected locally without a store write",
	})

	VotesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "votes_failed_total",
		Help: "Total number of failed vote attempts",
	}, []string{"reason"})

	VoteInsertLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vote_insert_latency_seconds",
		Help:    "Latency of authoritative vote inserts",
		Buckets: prometheus.DefBuckets,
	})

	ProductsRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_requested_total",
		Help: "Total number of customer-requested products created",
	})

	ProductRequestsPartialTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_requests_partial_total",
		Help: "Total number of product requests where the implicit vote failed",
	})

	ProductRequestsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_requests_failed_total",
		Help: "Total number of failed product requests",
	}, []string{"reason"})

	CatalogRowsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_rows_loaded_total",
		Help: "Total number of catalog rows fetched during snapshot loads",
	})

	CatalogLoadTruncations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_load_truncations_total",
		Help: "Total number of snapshot loads cut off by the row ceiling",
	})

	CatalogDuplicateIDs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_duplicate_ids_total",
		Help: "Total number of duplicate product ids dropped during snapshot loads",
	})

	CatalogLoadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_load_latency_seconds",
		Help:    "Latency of full catalog snapshot loads",
		Buckets: prometheus.DefBuckets,
	})

	RemoteVoteEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remote_vote_events_total",
		Help: "Total number of vote-insert events applied from the push channel",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
