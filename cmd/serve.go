package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parkos/parkos/api"
	"github.com/parkos/parkos/sim"
	"github.com/parkos/parkos/sim/metrics"
	"github.com/parkos/parkos/sim/publish"
	"github.com/parkos/parkos/sim/trace"
)

const shutdownTimeout = 5 * time.Second

// serveCmd exposes one session over HTTP until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig(cmd)

		s, err := newSession(cfg, sim.NewRealtimeScheduler())
		if err != nil {
			logrus.Fatalf("Failed to create session: %v", err)
		}
		s.EnableTrace(trace.NewSessionTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions}))
		s.AddListener(publish.NewLogPublisher(nil))

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		col, err := metrics.NewCollector(reg)
		if err != nil {
			logrus.Fatalf("Failed to register metrics: %v", err)
		}
		s.AddListener(col)

		var kp *publish.KafkaPublisher
		if len(cfg.KafkaBrokers) > 0 {
			kp, err = publish.NewKafkaPublisher(publish.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
			if err != nil {
				logrus.Fatalf("Failed to create Kafka publisher: %v", err)
			}
			s.AddListener(kp)
		}

		accessLog := logrus.StandardLogger().WriterLevel(logrus.InfoLevel)
		defer accessLog.Close()
		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           api.NewServer(s, reg).Handler(accessLog),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logrus.Infof("parkos listening on %s", cfg.Listen)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("HTTP server failed: %v", err)
			}
		case <-ctx.Done():
			logrus.Info("Shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("HTTP shutdown: %v", err)
		}
		s.Close()
		if kp != nil {
			if err := kp.Close(); err != nil {
				logrus.Warnf("Kafka publisher close: %v", err)
			}
		}
	},
}

func init() {
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().StringSlice("kafka-brokers", nil, "Kafka brokers for assignment events (empty disables)")
	serveCmd.Flags().String("kafka-topic", "parkos.assignments", "Kafka topic for assignment events")
}
