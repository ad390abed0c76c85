package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "runstatus_ticks_total",
		Help: "The total number of reported polls",
	})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "runstatus_fetch_seconds",
		Help: "Time spent listing jobs, including status job discovery retries",
	})
)
