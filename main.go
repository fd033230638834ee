package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/chat-relay/modules/api"
	"github.com/example/chat-relay/modules/auth"
	"github.com/example/chat-relay/modules/broadcast"
	"github.com/example/chat-relay/modules/chat"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Chat Relay ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	authModule := auth.NewModule()
	chatModule := chat.NewModule()
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule()

	// Inject broadcast hub into API module
	// (This is done manually because the hub is not exposed via ServiceContainer)
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - auth: Credential store and token issuing (ServiceProviderModule)
	// - chat: Message log and organization index (ServiceProviderModule + EventEmitterModule)
	// - broadcast: Event consumer (EventConsumerModule for WebSocket fan-out)
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on auth and chat)
	app.Register(authModule)
	app.Register(chatModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost%s):", addr)
	log.Println("  POST   /auth                        - Login and get a bearer token")
	log.Println("  GET    /health                      - Health check")
	log.Println("  GET    /:organizationId             - List an organization's chats (Bearer token)")
	log.Println("  GET    /:organizationId/:chatId     - Get a chat's message history (Bearer token)")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost%s/ws):", addr)
	log.Println("  First frame must be: {\"event\": \"connect\", \"data\": {\"token\": \"Bearer <jwt>\"}}")
	log.Println("  Client events: connect, disconnect, ack, join, chat_message")
	log.Println("  Server events: connected, joined, new_message, error")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
