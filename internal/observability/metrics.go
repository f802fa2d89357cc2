// Package observability provides tracing and domain metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agrisocial_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DomainEvents counts successful domain writes (registrations, likes, messages...).
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrisocial_domain_events_total",
		Help: "Total number of domain events by type",
	}, []string{"event"})

	// UploadBytes records the size of stored uploads by kind.
	UploadBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agrisocial_upload_bytes",
		Help:    "Size of stored uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 7),
	}, []string{"kind"})
)

// Domain event names.
const (
	EventUserRegistered  = "user_registered"
	EventUserDeleted     = "user_deleted"
	EventPostCreated     = "post_created"
	EventPostLiked       = "post_liked"
	EventCommentCreated  = "comment_created"
	EventCommentLiked    = "comment_liked"
	EventItemListed      = "marketplace_item_listed"
	EventCommunityCreate = "community_created"
	EventCommunityJoined = "community_joined"
	EventFollowCreated   = "follow_created"
	EventMessageSent     = "message_sent"
)

// RecordEvent increments the domain event counter.
func RecordEvent(event string) {
	DomainEvents.WithLabelValues(event).Inc()
}

const queryStartKey = "observability:query_start"

// RegisterQueryMetrics installs GORM callbacks that observe every statement's latency.
func RegisterQueryMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "raw"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.before("observability:before_"+s.op, before); err != nil {
			return err
		}
		if err := s.after("observability:after_"+s.op, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
