package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplanner_http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mealplanner_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	PlansGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mealplanner_meal_plans_generated_total",
			Help: "Meal plans generated and stored",
		},
	)

	// reason: no_candidates, no_unique_recipe, invalid_range, store
	PlanFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mealplanner_meal_plan_failures_total",
			Help: "Meal plan generation failures by reason",
		},
		[]string{"reason"},
	)

	PlannedDays = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mealplanner_meal_plan_days",
			Help:    "Number of days covered by generated plans",
			Buckets: []float64{1, 3, 7, 14, 21, 31},
		},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mealplanner_websocket_clients",
			Help: "Connected notification websockets",
		},
	)
)
