package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vr-scene-sync/internal/bootstrap"
	"vr-scene-sync/internal/config"
	"vr-scene-sync/internal/server"
	"vr-scene-sync/internal/tracer"

	"github.com/fatih/color"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer (OTEL_ENABLED gate)
	shutdownTracer := tracer.InitTracer("vr-scene-viewer", cfg.App.InstanceID)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to bootstrap: %v", err)
	}
	defer container.Close()

	printBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	go container.Loop.Run(ctx)
	go container.WebSocketHub.Run(ctx)

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}

	go func() {
		if err := container.SocketClient.Run(ctx); err != nil {
			log.Printf("[WARN] Scene socket ended: %v", err)
		}
	}()

	if container.NatsSource != nil {
		if err := container.NatsSource.Start(ctx); err != nil {
			log.Printf("[WARN] NATS scene source unavailable: %v", err)
		}
	}

	if container.ReconcileService != nil {
		go container.ReconcileService.Run(ctx)
	}

	// 5. Observer Server
	srv := server.New(cfg, container)
	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("[ERROR] Observer server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	color.Yellow("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] Server shutdown: %v", err)
	}
	<-container.Loop.Done()
}

func printBanner(cfg *config.Config) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)

	title.Println("VR SCENE VIEWER")
	label.Print("  instance   ")
	color.White(cfg.App.InstanceID)
	label.Print("  socket     ")
	color.White(cfg.Sync.SocketURL)
	label.Print("  observer   ")
	color.White("http://localhost:%s", cfg.App.Port)
	label.Print("  tick rate  ")
	color.White("%d Hz", cfg.App.TickRate)

	features := []struct {
		name string
		on   bool
	}{
		{"gestures", cfg.Features.GestureRecognition},
		{"eye tracking", cfg.Features.EyeTracking},
		{"spatial audio", cfg.Features.SpatialAudio},
		{"haptics", cfg.Features.HapticFeedback},
		{"proximity", cfg.Features.ProximityDetection},
		{"physics", cfg.Features.ImmersivePhysics},
	}
	for _, f := range features {
		label.Printf("  %-11s", f.name)
		if f.on {
			color.Green("on")
		} else {
			color.Red("off")
		}
	}
}
