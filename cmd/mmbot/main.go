package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/journal"
	"main/internal/mm"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/pricing"
	"main/internal/schema"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address (overrides config)")
	queueCapacity := flag.Int("queue-capacity", 4096, "Capacity of each engine queue")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	if cfg.PyroscopeURL != "" {
		name := cfg.PyroscopeName
		if name == "" {
			name = "mmbot"
		}
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: name,
			ServerAddress:   cfg.PyroscopeURL,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	registry := prometheus.NewRegistry()
	metrics := obs.NewMetrics(registry)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logs.Errorf("metrics server, err: %+v", err)
			}
		}()
	}

	var jnl *journal.Journal
	if cfg.JournalDSN != "" {
		jnl, err = journal.Open(cfg.JournalDSN)
		if err != nil {
			log.Fatalf("journal open failed: %v", err)
		}
		defer func() {
			_ = jnl.Close()
		}()
	}

	queues := mm.Queues{
		Feed:    bus.NewQueue[schema.DepthUpdate](*queueCapacity),
		Fills:   bus.NewQueue[schema.FillEvent](*queueCapacity),
		Control: bus.NewQueue[schema.ControlMessage](*queueCapacity),
		Orders:  bus.NewQueue[schema.OrderIntent](*queueCapacity),
	}

	engine := mm.NewEngine(&cfg, queues, pricing.NewAvellanedaStoikov(), pricing.NewLogReturnEstimator(), metrics, jnl)
	logs.Infof("mmbot starting")
	engine.Run(ctx)
	logs.Infof("mmbot stopped")
}
