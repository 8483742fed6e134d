package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsCreated is a Prometheus counter for tracking the total number of products created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "The total number of products created",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_deleted_total",
		Help: "The total number of products deleted",
	})

	CoursesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courses_created_total",
		Help: "The total number of courses created",
	})

	CoursesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courses_deleted_total",
		Help: "The total number of courses deleted",
	})

	RoboGeniusCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "robogenius_created_total",
		Help: "The total number of RoboGenius entries created",
	})

	RoboGeniusDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "robogenius_deleted_total",
		Help: "The total number of RoboGenius entries deleted",
	})

	// Enrollments counts enrollment changes by action (enroll, unenroll).
	Enrollments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "course_enrollments_total",
		Help: "The total number of course enrollment changes",
	}, []string{"action"})

	// Reviews counts review mutations by action (created, updated, deleted).
	Reviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_total",
		Help: "The total number of review mutations",
	}, []string{"action"})

	ImagesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "images_stored_total",
		Help: "The total number of images written to the image store",
	})

	// ImagesRejected counts rejected uploads by reason (media_type, size).
	ImagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "images_rejected_total",
		Help: "The total number of uploads rejected by the image policy",
	}, []string{"reason"})

	// OutboxEvents counts outbox events by final status (processed, failed).
	OutboxEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "The total number of outbox events handled by the worker",
	}, []string{"status"})

	// CacheLookups counts list cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "The total number of list cache lookups",
	}, []string{"result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "The total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
