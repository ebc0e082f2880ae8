// Command ledger-sheets-auth runs the OAuth consent flow once and saves the
// token the worker uses to mirror grids when no service account is set.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
	gsheet "ledger/internal/sheets/google"

	"golang.org/x/oauth2"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentSheets)
	cfg := config.Load()

	clientJSON, err := cfg.OAuthClientCredentials()
	if err != nil {
		logger.Error("Missing OAuth client", "error", err)
		os.Exit(1)
	}

	// The redirect URI must be listed in the OAuth client's authorized redirect URIs.
	redirectURL := "http://localhost:" + cfg.OAuthRedirectPort + "/callback"
	oauthCfg, err := gsheet.OAuthConfig(clientJSON, redirectURL)
	if err != nil {
		logger.Error("Invalid OAuth client", "error", err)
		os.Exit(1)
	}

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + cfg.OAuthRedirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- r.URL.Query().Get("code"):
		default:
		}
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Callback server failed", "error", err)
		}
	}()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	select {
	case code := <-codeCh:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		tok, err := oauthCfg.Exchange(ctx, code)
		if err != nil {
			logger.Error("Token exchange failed", "error", err)
			os.Exit(1)
		}
		if err := gsheet.SaveToken(cfg.GoogleOAuthTokenFile, tok); err != nil {
			logger.Error("Failed to save token", "error", err)
			os.Exit(1)
		}
		logger.Info("Saved OAuth token", "file", cfg.GoogleOAuthTokenFile)
	case <-time.After(5 * time.Minute):
		logger.Error("Authorization timed out")
		os.Exit(1)
	case <-sigCh:
		logger.Warn("Interrupted")
		os.Exit(1)
	}
}
