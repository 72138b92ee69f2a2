package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/aprscheduler/apr-scheduler/internal/config"
	"github.com/aprscheduler/apr-scheduler/internal/logging"
	"github.com/aprscheduler/apr-scheduler/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "directory containing scheduler.yml")
	selfRegister := flag.String("self-register", "", "host_id to auto-register for this machine, with capacity auto-detected via hostprobe")
	selfSlots := flag.Int("self-slots", 1, "total_slots to advertise for --self-register")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("apr-scheduler: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	svc := scheduler.New(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc.Start(ctx)
	logger.Info("apr-scheduler started", "data_dir", cfg.DataDir)

	if *selfRegister != "" {
		host, err := svc.RegisterLocalHost(ctx, scheduler.RegisterHostInput{
			HostID:     *selfRegister,
			TotalSlots: *selfSlots,
		})
		if err != nil {
			logger.Error("self-register failed", "error", err)
		} else {
			logger.Info("self-registered local host", "host_id", host.ID, "total_cpu", host.TotalCPU, "total_memory_gb", host.TotalMemoryGB)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")
	svc.Close()
}
