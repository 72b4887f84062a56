package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inferd/internal/gateway"
	"inferd/internal/registry"
	"inferd/pkg/client"
)

func main() {
	defaultAddr := ":8081"
	if v := os.Getenv("INFERGW_ADDR"); v != "" {
		defaultAddr = v
	}
	defaultDaemon := "http://127.0.0.1:8080"
	if v := os.Getenv("INFERGW_DAEMON_URL"); v != "" {
		defaultDaemon = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address for uploads")
	daemonURL := flag.String("daemon-url", defaultDaemon, "Base URL of the inferd daemon")
	object := flag.String("object", "", "Model object name (empty uses the daemon default)")
	labelsPath := flag.String("labels", "", "Path to a JSON array of class labels")
	callTimeout := flag.Duration("call-timeout", 30*time.Second, "Per-call deadline for daemon requests")
	flag.Parse()

	var labels []string
	if *labelsPath != "" {
		loaded, err := registry.LoadLabels(*labelsPath)
		if err != nil {
			log.Fatalf("failed to load labels %s: %v", *labelsPath, err)
		}
		labels = loaded
	}

	cli := client.New(*daemonURL, client.WithCallTimeout(*callTimeout))
	gw := gateway.New(cli.Model(*object), labels)

	srv := &http.Server{Addr: *addr, Handler: gw.NewMux()}
	go func() {
		log.Printf("infergw listening on %s (daemon: %s)", *addr, *daemonURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}
