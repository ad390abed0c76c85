package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func metricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func serveMetrics(addr string) {
	if addr == "" {
		return
	}

	go func() {
		logrus.Infof("serving metrics on %s", addr)
		err := http.ListenAndServe(addr, metricsRouter())
		if err != nil {
			logrus.Warnf("metrics endpoint stopped: %s", err)
		}
	}()
}
