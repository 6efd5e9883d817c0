/*
Package monitoring provides Prometheus metrics for the window manager.

# Overview

Every Metrics value owns its registry, so independent instances never
collide on registration. The server exposes the registry on /metrics.

# Features

- HTTP request metrics (latency, throughput, size)
- Window lifecycle metrics (open gauge, opened/closed/focused counters)
- Stacking order high-water mark
- Drag and resize gesture outcomes
- Session snapshot writes and restores
- Storage operation counts and latency
- WebSocket connection metrics

# Usage

	metrics := monitoring.NewMetrics()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordGesture("drag", "committed")

	timer := monitoring.NewTimer(metrics, "sqlite", "set")
	// ... perform operation ...
	timer.Stop("success")
*/
package monitoring
