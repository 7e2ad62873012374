package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ListingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentwear_listings_created_total",
		Help: "Total number of listings successfully created.",
	})

	ListingsUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentwear_listings_updated_total",
		Help: "Total number of listings successfully updated.",
	})

	ListingsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentwear_listings_deleted_total",
		Help: "Total number of listings successfully deleted.",
	})

	GuardDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentwear_guard_denials_total",
		Help: "Total number of listing mutations denied because of existing orders.",
	},
		[]string{"mutation"},
	)

	WishlistTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentwear_wishlist_toggles_total",
		Help: "Total number of wishlist toggles by resulting state.",
	},
		[]string{"state"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentwear_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	OutboxSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentwear_outbox_sends_total",
		Help: "Total number of outbox tasks relayed to the broker by result.",
	},
		[]string{"result"},
	)

	ConsumedMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentwear_consumed_messages_total",
		Help: "Total number of revalidation messages consumed by result (handled, skipped, failed).",
	},
		[]string{"result"},
	)

	CategoryCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentwear_category_cache_items",
		Help: "Current number of items in the category cache.",
	})
)
