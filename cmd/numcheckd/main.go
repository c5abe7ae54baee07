package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"numcheck/internal/config"
	"numcheck/internal/daemon"
	"numcheck/internal/ipc"
	"numcheck/internal/logging"
	"numcheck/internal/messaging"
	// The messaging network driver registers itself via a blank import of
	// its package here at build time.
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	dialer, err := messaging.DefaultDialer()
	if err != nil {
		log.Fatalf("messaging driver: %v", err)
	}

	d, err := daemon.New(daemon.Options{
		Config: cfg,
		Logger: logger,
		Dialer: dialer,
	})
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start ipc server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}
	defer d.Stop()

	<-ctx.Done()
	logger.Info("numcheckd shutting down")
}
