package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/osckit/go-osc/internal/config"
	"github.com/osckit/go-osc/osc"
)

type serveOptions struct {
	configPath string
	udpAddr    string
	tcpAddr    string
	httpAddr   string
	echo       bool
}

func serveCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive OSC packets and log them",
		Long: `Receive OSC packets on every enabled transport and log each one.

UDP carries one packet per datagram, TCP carries SLIP framed packets and the
HTTP listener accepts WebSocket connections on ws_path and serves Prometheus
metrics on metrics_path.

Examples:
  osctool serve --udp 127.0.0.1:8765
  osctool serve --config osc.toml --tcp :9000 --echo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd.Flags())
			if err != nil {
				return err
			}
			if err := root.configureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, opts.echo)
		},
	}

	addTransportFlags(cmd.Flags(), opts)
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	cmd.Flags().BoolVar(&opts.echo, "echo", false, "Send every packet back to its sender")

	return cmd
}

func addTransportFlags(fs *pflag.FlagSet, opts *serveOptions) {
	fs.StringVar(&opts.udpAddr, "udp", "", "UDP listen address (overrides udp_addr)")
	fs.StringVar(&opts.tcpAddr, "tcp", "", "TCP listen address for SLIP streams (overrides tcp_addr)")
	fs.StringVar(&opts.httpAddr, "http", "", "HTTP listen address for WebSocket and metrics (overrides http_addr)")
}

// config loads the config file, if any, and applies the flags that were set.
func (o *serveOptions) config(fs *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if fs.Changed("udp") {
		cfg.UDPAddr = o.udpAddr
	}
	if fs.Changed("tcp") {
		cfg.TCPAddr = o.tcpAddr
	}
	if fs.Changed("http") {
		cfg.HTTPAddr = o.httpAddr
	}
	return cfg, cfg.Validate()
}

func runServe(ctx context.Context, cfg config.Config, echo bool) error {
	ls, err := listen(cfg)
	if err != nil {
		return err
	}
	defer ls.Close()
	return serve(ctx, cfg, ls, echo)
}

// listeners holds the sockets of the enabled transports; disabled ones are
// nil.
type listeners struct {
	udp  net.PacketConn
	tcp  net.Listener
	http net.Listener
}

func listen(cfg config.Config) (*listeners, error) {
	ls := &listeners{}
	var err error
	if cfg.UDPAddr != "" {
		if ls.udp, err = net.ListenPacket("udp", cfg.UDPAddr); err != nil {
			return nil, err
		}
	}
	if cfg.TCPAddr != "" {
		if ls.tcp, err = net.Listen("tcp", cfg.TCPAddr); err != nil {
			ls.Close()
			return nil, err
		}
	}
	if cfg.HTTPAddr != "" {
		if ls.http, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
			ls.Close()
			return nil, err
		}
	}
	return ls, nil
}

func (ls *listeners) Close() {
	if ls.udp != nil {
		_ = ls.udp.Close()
	}
	if ls.tcp != nil {
		_ = ls.tcp.Close()
	}
	if ls.http != nil {
		_ = ls.http.Close()
	}
}

// serve runs every transport in ls until ctx is done or one of them fails.
func serve(ctx context.Context, cfg config.Config, ls *listeners, echo bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := osc.NewMetrics(reg)
	dec := &osc.Decoder{MaxDepth: cfg.MaxBundleDepth}
	dest := packetLogger{echo: echo}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errc := make(chan error, 3)
	run := func(name, addr string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Str("transport", name).Str("addr", addr).Msg("listening")
			if err := fn(); err != nil {
				log.Error().Err(err).Str("transport", name).Msg("transport stopped")
				errc <- err
				cancel()
			}
		}()
	}

	server := &osc.Server{
		Dispatcher:          dest,
		ReadTimeout:         cfg.ReadTimeout,
		Decoder:             dec,
		MaxStreamPacketSize: cfg.MaxPacketSize,
		Metrics:             metrics,
	}
	if ls.udp != nil {
		run("udp", ls.udp.LocalAddr().String(), func() error { return server.Serve(ctx, ls.udp) })
	}
	if ls.tcp != nil {
		run("tcp", ls.tcp.Addr().String(), func() error { return server.ServeStream(ctx, ls.tcp) })
	}

	if ls.http != nil {
		srv := &http.Server{
			Handler:           newRouter(cfg, reg, dec, metrics, dest),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}
		run("http", ls.http.Addr().String(), func() error {
			if err := srv.Serve(ls.http); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	close(errc)
	log.Info().Msg("stopped")
	return <-errc
}

func newRouter(cfg config.Config, reg *prometheus.Registry, dec *osc.Decoder, metrics *osc.Metrics, dest osc.Destination) http.Handler {
	r := chi.NewRouter()
	r.Handle(cfg.WSPath, &osc.WebSocketHandler{
		Destination:   dest,
		Decoder:       dec,
		MaxPacketSize: cfg.MaxPacketSize,
		Metrics:       metrics,
	})
	r.Handle(cfg.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return r
}

// packetLogger logs every packet it takes and optionally echoes it.
type packetLogger struct {
	echo bool
}

func (l packetLogger) TakePacket(p osc.Packet) {
	remote := ""
	if rc := p.ReplyTo(); rc != nil && rc.RemoteAddr() != nil {
		remote = rc.RemoteAddr().String()
	}
	log.Info().Str("remote", remote).Stringer("packet", p).Msg("received")

	if l.echo && p.ReplyTo() != nil {
		if err := p.ReplyTo().Reply(p); err != nil {
			log.Warn().Err(err).Str("remote", remote).Msg("echo failed")
		}
	}
}
