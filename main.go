package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/muhammadolammi/jobmatchclient/internal/config"
	"github.com/muhammadolammi/jobmatchclient/internal/gateway"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
)

var errNotSignedIn = errors.New("not signed in, run `jobmatch login` first")

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientConfig, err := newClientConfig(ctx, cfg, os.Stdout, log.Default())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer clientConfig.Close()

	if err := clientConfig.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		printError(os.Stderr, err)
		clientConfig.Close()
		os.Exit(1)
	}
}

// printError turns the error types callers can act on into plain messages.
func printError(w io.Writer, err error) {
	var verr *models.ValidationError
	var apiErr *gateway.APIError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(w, "⚠️ %s\n", verr.Error())
	case errors.Is(err, gateway.ErrSessionExpired):
		fmt.Fprintln(w, "❌ Session expired. Please login again.")
	case errors.Is(err, models.ErrForbidden):
		fmt.Fprintf(w, "⛔ %v\n", err)
	case errors.As(err, &apiErr) && (apiErr.RemainingSeconds > 0 || apiErr.StatusCode == http.StatusTooManyRequests):
		fmt.Fprintf(w, "⏳ %s\n", apiErr.WaitMessage())
	default:
		fmt.Fprintf(w, "❌ %v\n", err)
	}
}
