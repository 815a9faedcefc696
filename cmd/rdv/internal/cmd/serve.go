package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quic-go/quic-go/http3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TheusHen/rendezvous/rdv/config"
	"github.com/TheusHen/rendezvous/rdv/directory/jsonrpc"
	"github.com/TheusHen/rendezvous/rdv/directory/memory"
	"github.com/TheusHen/rendezvous/rdv/metrics"
	"github.com/TheusHen/rendezvous/rdv/transport"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs an in-memory development directory",
		Long: `Serves the directory JSON-RPC API on /rpc backed by an in-memory store.
Entries expire after the retention of the mode they were added with.

The server keeps everything in memory and is meant for local testing.`,
		RunE: e.runServe,
	}
	cmd.Flags().StringP("listen", "l", "", "TCP address to listen on (default from config)")
	cmd.Flags().String("http3", "", "UDP address for an additional HTTP/3 listener")
	return cmd
}

func (e *env) runServe(cmd *cobra.Command, args []string) error {
	cfg := e.cfg.Server
	if v := flagString(cmd, "listen"); v != "" {
		cfg.Listen = v
	}
	if v := flagString(cmd, "http3"); v != "" {
		cfg.HTTP3 = v
	}
	log := e.logger

	handler, err := newServeMux(cfg, log, memory.New())
	if err != nil {
		return err
	}

	var h3 *http3.Server
	if cfg.HTTP3 != "" {
		if h3, err = transport.NewHTTP3Server(cfg.HTTP3, handler); err != nil {
			return err
		}
	}
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	return serveDirectory(ctx, log, ln, h3, handler)
}

// serveDirectory serves handler on ln, and on h3 when it is not nil, until
// ctx is done or a listener fails. Both listeners are shut down either way.
func serveDirectory(ctx context.Context, log logrus.FieldLogger, ln net.Listener, h3 *http3.Server, handler http.Handler) error {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 2)
	go func() {
		log.WithField("addr", ln.Addr().String()).Info("directory listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	if h3 != nil {
		go func() {
			log.WithField("addr", h3.Addr).Info("directory listening on HTTP/3")
			if err := h3.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info("shutting down directory")
	case err = <-errc:
		log.WithError(err).Error("listener failed")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if h3 != nil {
		if cerr := h3.Close(); cerr != nil {
			log.WithError(cerr).Warn("closing HTTP/3 listener")
		}
	}
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	return err
}

// newServeMux mounts the directory service on /rpc and, when enabled, the
// Prometheus registry on /metrics.
func newServeMux(cfg config.ServerConfig, log logrus.FieldLogger, store *memory.Store) (http.Handler, error) {
	svc := jsonrpc.NewService(store, log)
	mux := http.NewServeMux()

	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := metrics.New(reg)
		if err != nil {
			return nil, err
		}
		svc.Instrument(m)
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	rpcHandler, err := jsonrpc.NewHandler(svc)
	if err != nil {
		return nil, err
	}
	mux.Handle("/rpc", rpcHandler)
	return mux, nil
}
