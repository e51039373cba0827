package api

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.Handle("GET /metrics", promhttp.Handler())

	s.router.HandleFunc("POST /effort", s.handleScoreEffort)
	s.router.HandleFunc("POST /align", s.handleAlign)
	s.router.HandleFunc("POST /effort-correlation", s.handleCorrelate)
	s.router.HandleFunc("POST /aligned-series", s.handleAlignedSeries)

	s.router.HandleFunc("GET /dataset/paragraphs", s.handleListParagraphs)
	s.router.HandleFunc("POST /dataset/paragraph", s.handleGetParagraph)
	s.router.HandleFunc("GET /dataset/metrics", s.handleListMetrics)
}
