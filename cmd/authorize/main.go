// Command authorize runs the one-time Google OAuth consent flow and writes the
// token file used by the API server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/schedura-ai/booking-assistant/internal/config"
	"github.com/schedura-ai/booking-assistant/internal/google"
	"github.com/schedura-ai/booking-assistant/pkg/logger"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	oauthConfig, err := google.LoadOAuthConfig(cfg.GoogleCredentialsFile)
	if err != nil {
		log.Fatal("failed to load Google credentials", zap.Error(err))
	}

	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n> ", authURL)

	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		log.Fatal("failed to read authorization code", zap.Error(err))
	}

	tok, err := oauthConfig.Exchange(context.Background(), strings.TrimSpace(code))
	if err != nil {
		log.Fatal("failed to exchange authorization code", zap.Error(err))
	}

	if err := google.WriteToken(cfg.GoogleTokenFile, tok); err != nil {
		log.Fatal("failed to save token", zap.Error(err))
	}
	log.Info("token saved", zap.String("path", cfg.GoogleTokenFile))
}
