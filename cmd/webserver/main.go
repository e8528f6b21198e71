package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/muhammadolammi/jobmatchclient/internal/config"
)

func main() {
	cfg := config.Load()

	if _, err := os.Stat(cfg.Web.BuildDir); err != nil {
		log.Fatalf("❌ WEB_BUILD_DIR %s: %v", cfg.Web.BuildDir, err)
	}
	app := newApp(cfg.Web.BuildDir)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("🛑 Shutting down web server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Web.Port)
	log.Printf("🚀 Serving %s on %s", cfg.Web.BuildDir, addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
