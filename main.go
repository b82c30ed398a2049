package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freekieb7/strand/config"
	"github.com/freekieb7/strand/http"
	"github.com/freekieb7/strand/socket"
	"github.com/freekieb7/strand/telemetry"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const (
	name    = "github.com/freekieb7/strand"
	version = "0.1.0"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "Usage of strand:")
			config.Usage(os.Stderr)
			os.Exit(2)
		}
		log.Fatalln(err)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(args, os.LookupEnv)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if cfg.Telemetry {
		shutdown, err := telemetry.Setup(ctx, telemetry.Config{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: version,
		})
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Println(err)
			}
		}()

		logger = otelslog.NewLogger(name)
	}

	sock, err := socket.Bind(ctx, cfg.Host, cfg.Port)
	if err != nil {
		return fmt.Errorf("could not bind to %s:%s: %w", cfg.Host, cfg.Port, err)
	}

	server := http.NewServer("strand", sock,
		http.WithLogger(logger),
		http.WithBufferSize(cfg.BufferSize),
		http.WithMaxLineSize(cfg.MaxLineSize),
		http.WithReadTimeout(cfg.ReadTimeout),
		http.WithWriteTimeout(cfg.WriteTimeout),
	)

	recoverer := http.RecoverMiddleware(logger)
	if err := server.Handle("/", root, recoverer); err != nil {
		return err
	}
	if err := server.Handle("/login", login, recoverer); err != nil {
		return err
	}

	logger.InfoContext(ctx, "listening", slog.String("addr", sock.Addr().String()), slog.Int("backlog", cfg.Backlog))

	err = server.ListenAndServe(ctx, cfg.Backlog)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	return errors.Join(err, server.Close())
}

// root writes its response byte for byte.
func root(req *http.Request, res *http.Response) {
	const response = "HTTP/1.1 200 OK\r\n" +
		"Content-Length: 5\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\nhi:)\n"

	for i := range len(response) {
		if err := req.Buf.WriteByte(response[i]); err != nil {
			return
		}
	}
	_ = req.Buf.Flush()
}

func login(req *http.Request, res *http.Response) {
	_, _, _ = res.Headers.Set("Content-Type", "text/plain")
	_ = res.Send(req, "login\n")
}
