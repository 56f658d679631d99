// Command spiralctl loads a SPIRAL IR document from disk, runs it
// through parse -> desugar -> type-check -> evaluate (or, with -lower,
// parse -> desugar -> lower), and prints the result. It is a debug
// driver for exercising the internal/* pipeline end to end, modeled on
// the teacher's cmd/server flag-parsing and graceful-shutdown shape --
// not a general-purpose CLI (that's out of scope).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spiralir/spiral"
	"github.com/spiralir/spiral/internal/config"
)

func main() {
	var (
		docPath    = flag.String("doc", "", "path to a SPIRAL IR document (JSON)")
		lowerOnly  = flag.Bool("lower", false, "lower the document's EIR result to LIR instead of evaluating it")
		typeCheck  = flag.Bool("typecheck", true, "run the type checker before evaluating")
		streamAddr = flag.String("stream", "", "address to serve a live event stream on (overrides config), empty disables it")
	)
	flag.Parse()

	if *docPath == "" {
		fmt.Fprintln(os.Stderr, "usage: spiralctl -doc <path> [-lower] [-typecheck=false] [-stream :8090]")
		os.Exit(2)
	}

	cfg := config.Load()
	if *streamAddr != "" {
		cfg.StreamAddr = *streamAddr
	} else {
		// spiralctl is a one-shot debug driver: only serve the event
		// stream when explicitly asked for via -stream, even though a
		// long-running service built on this config would default to
		// cfg.StreamAddr's ":7777".
		cfg.StreamAddr = ""
	}

	sess := spiral.NewSession(cfg)
	log := sess.Logger()

	raw, err := os.ReadFile(*docPath)
	if err != nil {
		log.Error().Err(err).Str("path", *docPath).Msg("failed to read document")
		os.Exit(1)
	}

	d, err := spiral.ParseDocument(raw)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse document")
		os.Exit(1)
	}

	d, err = sess.Desugar(d)
	if err != nil {
		log.Error().Err(err).Msg("desugar failed")
		os.Exit(1)
	}

	if *typeCheck {
		if _, err := sess.TypeCheck(d); err != nil {
			log.Error().Err(err).Msg("type check failed")
			os.Exit(1)
		}
		log.Info().Msg("type check passed")
	}

	var stopStream func()
	if cfg.StreamAddr != "" {
		observer := sess.EnableStream()
		mux := http.NewServeMux()
		mux.Handle("/events", observer)
		srv := &http.Server{Addr: cfg.StreamAddr, Handler: mux}
		go func() {
			log.Info().Str("address", cfg.StreamAddr).Msg("serving event stream")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("stream server failed")
			}
		}()
		stopStream = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}
	}

	if *lowerOnly {
		lowered, err := sess.Lower(d)
		if err != nil {
			log.Error().Err(err).Msg("lowering failed")
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(lowered, "", "  ")
		fmt.Println(string(out))
	} else {
		result := sess.Evaluate(d)
		out, _ := json.Marshal(result)
		fmt.Println(string(out))
	}

	if stopStream != nil {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		log.Info().Msg("document evaluated; event stream still serving, press ctrl-c to exit")
		<-quit
		log.Info().Msg("shutting down event stream")
		stopStream()
	}
}
