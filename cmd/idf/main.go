// Command idf estimates rainfall Intensity-Duration-Frequency curves from a
// raw precipitation observation file. It fits per-duration Gumbel
// distributions to annual maxima, derives depth and intensity quantiles for
// the configured return periods, and summarizes each return period with
// Montana power-law coefficients.
//
// Usage:
//
//	idf [-station NAME] <data-file>
//
// With no -station flag, every station found in the file is analyzed.
// Windows, return periods, logging, the optional metrics endpoint and the
// optional Kafka results topic are configured through the environment; see
// internal/config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	httpadapter "github.com/couchcryptid/rainfall-idf/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/rainfall-idf/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-idf/internal/config"
	"github.com/couchcryptid/rainfall-idf/internal/idf"
	"github.com/couchcryptid/rainfall-idf/internal/observability"
	"github.com/couchcryptid/rainfall-idf/internal/session"
)

func main() {
	station := flag.String("station", "", "analyze only this station (default: all)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: idf [-station NAME] <data-file>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(flag.Arg(0), *station, cfg, logger, metrics); err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func run(path, station string, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := session.New(cfg.Windows, cfg.ReturnPeriods, cfg.ResultCacheSize, logger, metrics)
	if err != nil {
		return err
	}

	// Optional metrics endpoint.
	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, sess, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	// Optional results publisher.
	var publisher *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		logger.Info("kafka results publishing enabled", "topic", cfg.KafkaSinkTopic)
	}

	stations, err := sess.Load(path)
	if err != nil {
		return err
	}

	targets := stations
	if station != "" {
		targets = []string{station}
	}

	for _, name := range targets {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := sess.Analyze(name)
		if err != nil {
			return err
		}
		render(os.Stdout, result)

		if publisher != nil {
			if err := publisher.PublishResult(ctx, result); err != nil {
				logger.Error("publish failed", "station", name, "error", err)
			}
		}
	}
	return nil
}

// render writes the fitted parameters and estimate tables as aligned text.
func render(out *os.File, r *session.Result) {
	fmt.Fprintf(out, "\n=== Station: %s ===\n", r.Station)

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

	fmt.Fprintln(w, "\nGumbel parameters")
	fmt.Fprintln(w, "duration\tmean\tvariance\tmu\tbeta")
	for _, d := range r.Gumbel.Windows {
		p := r.Gumbel.Params[d]
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.3f\n", d.Label(), p.Mean, p.Variance, p.Mu, p.Beta)
	}

	renderTable(w, "Rainfall depth (mm)", r.Depths)
	renderTable(w, "Rainfall intensity (mm/h)", r.Intensities)

	fmt.Fprintln(w, "\nMontana parameters")
	fmt.Fprintln(w, "T (years)\ta\tb\tr²")
	for _, p := range r.Montana.Periods {
		m := r.Montana.Params[p]
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.6f\n", int(p), m.A, m.B, m.R2)
	}

	renderTable(w, "Montana intensity (mm/h)", r.MontanaTable)
	w.Flush()

	for _, warning := range r.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
}

func renderTable(w *tabwriter.Writer, title string, t *idf.Table) {
	fmt.Fprintf(w, "\n%s\n", title)

	header := make([]string, 0, len(t.Periods)+1)
	header = append(header, "duration")
	for _, p := range t.Periods {
		header = append(header, fmt.Sprintf("T=%d", int(p)))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for i, d := range t.Durations {
		cells := make([]string, 0, len(t.Periods)+1)
		cells = append(cells, d.Label())
		for j := range t.Periods {
			cells = append(cells, fmt.Sprintf("%.3f", t.Values[i][j]))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}
