package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deckdraft/proposal-backend/api"
	"github.com/deckdraft/proposal-backend/config"
	"github.com/deckdraft/proposal-backend/services"
	"github.com/deckdraft/proposal-backend/store"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()

	// Human-readable log output for local development; JSON otherwise.
	if config.GetBool(c, "PRETTY_LOGGING", false) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	// The generation backend owns everything content-related: PDF parsing,
	// slide text, styling. This service only orchestrates calls to it.
	generatorURL := config.GetString(c, "GENERATOR_BASE_URL", "")
	if generatorURL == "" {
		fmt.Println("GENERATOR_BASE_URL is required. Exiting...")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout: config.GetDuration(c, "OUTBOUND_TIMEOUT_SECONDS", 120*time.Second),
	}

	generator := services.NewGenerationClient(generatorURL, httpClient)

	var authClient *services.AuthClient
	if authURL := config.GetString(c, "AUTH_BASE_URL", ""); authURL != "" {
		authClient = services.NewAuthClient(authURL, httpClient)
	} else {
		fmt.Println("Warning: AUTH_BASE_URL not set, auth endpoints disabled")
	}

	assistantMode := config.GetString(c, "ASSISTANT_MODE", services.AssistantModeLocal)
	assistant := services.NewAssistant(assistantMode, generator)
	fmt.Printf("Assistant mode: %s\n", assistantMode)

	sessions := store.NewSessionStore()

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(c, api.Dependencies{
		Sessions:  sessions,
		Generator: generator,
		Assistant: assistant,
		Auth:      authClient,
	})
	if err != nil {
		fmt.Printf("Error initializing server: %v\n", err)
		os.Exit(1)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
