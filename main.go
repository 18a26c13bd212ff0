// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/karmarun/ixl/api"
	"github.com/karmarun/ixl/batch"
	_ "github.com/karmarun/ixl/codec/binary"
	_ "github.com/karmarun/ixl/codec/json"
	"github.com/karmarun/ixl/config"
	"github.com/karmarun/ixl/db"
	"github.com/karmarun/ixl/kvm"
	"github.com/karmarun/ixl/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

func main() {

	flag.Parse()

	if flag.Arg(0) == "hash-key" { // ixl hash-key <key>
		if flag.Arg(1) == "" {
			fmt.Fprintln(os.Stderr, "usage: ixl hash-key <api key>")
			os.Exit(2)
		}
		h, e := api.HashKey(flag.Arg(1))
		if e != nil {
			fmt.Fprintln(os.Stderr, e)
			os.Exit(1)
		}
		fmt.Println(h)
		return
	}

	log, e := logger.New(config.Env, config.LogLevel)
	if e != nil {
		fmt.Fprintln(os.Stderr, e)
		os.Exit(2)
	}
	defer log.Sync()

	if config.PipelineFile == "" {
		log.Fatal("--pipeline is required (see --help)")
	}
	pipeline, e := config.Load(config.PipelineFile)
	if e != nil {
		log.Fatal("loading pipeline", zap.Error(e))
	}

	program := (*kvm.Program)(nil)
	{ // fail fast on scripts that do not verify
		in, out, e := pipeline.Schemas()
		if e != nil {
			log.Fatal("parsing schemas", zap.Error(e))
		}
		p, ke := kvm.Compile(pipeline.ParsedScript(), in, out)
		if ke != nil {
			log.Fatal("compiling script\n" + ke.String())
		}
		program = p.WithDefaultWeight(*pipeline.DefaultWeight)
		log.Info("script compiled", zap.Stringer("script", program), zap.Int32("default_weight", program.DefaultWeight()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.Process != "" {
		if e := runBatch(ctx, program, config.Process, log); e != nil {
			log.Fatal("batch failed", zap.Error(e))
		}
		return
	}

	if e := serve(ctx, program, pipeline, log); e != nil {
		log.Fatal("server failed", zap.Error(e))
	}
}

func runBatch(ctx context.Context, program *kvm.Program, path string, log *zap.Logger) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, e := os.Open(path)
		if e != nil {
			return e
		}
		defer f.Close()
		r = f
	}
	stats, e := batch.Run(ctx, program, r, os.Stdout, log)
	log.Info("batch finished", zap.Int("processed", stats.Processed), zap.Int("failed", stats.Failed))
	return e
}

func serve(ctx context.Context, program *kvm.Program, pipeline config.Pipeline, log *zap.Logger) error {

	if config.DataFile == "" {
		return errors.New("--data-file is required in server mode")
	}
	store, e := db.Open(config.DataFile, log)
	if e != nil {
		return e
	}
	defer store.Close()
	if e := store.Bind(program, config.ResetData); e != nil {
		return fmt.Errorf("%w (use --reset-data to drop stored documents)", e)
	}

	auth, e := api.NewAuthenticator(pipeline.Auth.APIKeyHashes, log)
	if e != nil {
		return fmt.Errorf("auth.api_key_hashes: %w", e)
	}
	if !auth.Enabled() {
		log.Warn("no api keys configured, authentication disabled")
	}
	handler := api.NewServer(program, store, auth, log).Handler()

	log.Info("starting ixl", zap.String("http_port", config.HttpPort))

	httpServer, httpsServer := (*http.Server)(nil), (*http.Server)(nil)
	timeouts := func(s *http.Server) *http.Server {
		s.ReadTimeout = time.Duration(pipeline.HTTP.ReadTimeoutSec) * time.Second
		s.WriteTimeout = time.Duration(pipeline.HTTP.WriteTimeoutSec) * time.Second
		return s
	}

	httpServer = timeouts(&http.Server{
		Addr:    ":" + config.HttpPort,
		Handler: handler,
	})

	httpsRedirectionHandler := http.HandlerFunc(func(rw http.ResponseWriter, rq *http.Request) {
		u := rq.URL
		u.Scheme = "https"
		u.Host = rq.Host
		http.Redirect(rw, rq, u.String(), http.StatusMovedPermanently)
	})

	httpsCertFile, httpsKeyFile := config.HttpsCertFile, config.HttpsKeyFile

	{ // LetsEncrypt support
		if (len(config.LetsencryptDomains) > 0) != (len(config.LetsencryptEmail) > 0) {
			return errors.New("--letsencrypt-email and --letsencrypt-domains must be set together")
		}

		if len(config.LetsencryptDomains) > 0 {
			domains := strings.Split(config.LetsencryptDomains, ",")
			cacheDir := config.LetsencryptCacheDir
			if cacheDir == "" {
				cacheDir = "autocert-cache"
			}
			log.Info("LetsEncrypt enabled",
				zap.String("https_port", config.HttpsPort),
				zap.Strings("domains", domains),
				zap.String("email", config.LetsencryptEmail),
			)
			m := &autocert.Manager{
				Prompt:     autocert.AcceptTOS,
				Cache:      autocert.DirCache(cacheDir),
				HostPolicy: autocert.HostWhitelist(domains...),
				Email:      config.LetsencryptEmail,
			}
			httpsServer = timeouts(&http.Server{
				Addr:      ":" + config.HttpsPort,
				Handler:   handler,
				TLSConfig: &tls.Config{GetCertificate: m.GetCertificate},
			})
			httpServer.Handler = m.HTTPHandler(httpsRedirectionHandler)
			httpsCertFile, httpsKeyFile = ``, ``
		}
	}

	{ // Own TLS config support
		if (len(httpsCertFile) > 0) != (len(httpsKeyFile) > 0) {
			return errors.New("--https-cert-file and --https-key-file must be set together")
		}

		if len(httpsCertFile) > 0 {
			httpsServer = timeouts(&http.Server{
				Addr:    ":" + config.HttpsPort,
				Handler: handler,
			})
			httpServer.Handler = httpsRedirectionHandler
		}
	}

	failed := make(chan error, 2)

	go func() {
		if e := httpServer.ListenAndServe(); !errors.Is(e, http.ErrServerClosed) {
			failed <- fmt.Errorf("HTTP: %w", e)
		}
	}()
	log.Info("HTTP server started")

	if httpsServer != nil {
		go func() {
			if e := httpsServer.ListenAndServeTLS(httpsCertFile, httpsKeyFile); !errors.Is(e, http.ErrServerClosed) {
				failed <- fmt.Errorf("HTTPS: %w", e)
			}
		}()
		log.Info("HTTPS server started", zap.String("https_port", config.HttpsPort))
	}

	select {
	case e := <-failed:
		return e
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), time.Duration(pipeline.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if httpsServer != nil {
		if e := httpsServer.Shutdown(sctx); e != nil {
			log.Error("HTTPS shutdown", zap.Error(e))
		}
	}
	return httpServer.Shutdown(sctx)
}
