package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"edumanage/internal/ai"
	"edumanage/internal/api"
	"edumanage/internal/config"
	"edumanage/internal/database"
	"edumanage/internal/websocket"
	"edumanage/internal/whatsapp"
	dbconfig "edumanage/pkg/database"
)

// Application wires the subsystems together and owns their lifecycle.
type Application struct {
	config    *config.Config
	dbManager *database.Manager
	realtime  *websocket.Service
	assistant *ai.Assistant
	messenger *whatsapp.Service
	apiServer *api.Server
}

// NewApplication builds all components in dependency order:
// database, then realtime and gateways, then the HTTP server on top.
func NewApplication(cfg *config.Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbManager, err := database.NewManager(&dbconfig.Config{
		DatabasePath:    cfg.Database.Path,
		MaxConnections:  10,
		ConnMaxLifetime: cfg.Database.Timeout,
		ConnMaxIdleTime: cfg.Database.Timeout / 3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database manager: %w", err)
	}

	realtime := websocket.NewService(dbManager, cfg.WebSocket)
	assistant := ai.NewAssistant(cfg.OpenAI, dbManager)
	messenger := whatsapp.NewService(cfg.WhatsApp)

	apiServer := api.NewServer(api.Options{
		Config:           cfg.HTTP,
		Storage:          dbManager,
		Broadcaster:      realtime,
		Assistant:        assistant,
		Messenger:        messenger,
		WebSocketHandler: realtime.HandleWebSocket,
	})

	return &Application{
		config:    cfg,
		dbManager: dbManager,
		realtime:  realtime,
		assistant: assistant,
		messenger: messenger,
		apiServer: apiServer,
	}, nil
}

// Start launches the liveness monitor and the HTTP listener. It returns once
// the listener is accepting connections or has failed to start.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("starting edumanage on %s", app.config.HTTP.Addr())

	app.realtime.StartLivenessMonitor(ctx)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.apiServer.Start(); err != nil {
			serverErrCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		app.realtime.StopLivenessMonitor()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("edumanage started")
		return nil
	case <-ctx.Done():
		app.realtime.StopLivenessMonitor()
		return ctx.Err()
	}
}

// Stop shuts down in reverse dependency order: listener, realtime sweeper,
// database.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("shutting down edumanage")

	if err := app.apiServer.Stop(ctx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}

	app.realtime.StopLivenessMonitor()

	if err := app.dbManager.Close(); err != nil {
		log.Printf("database shutdown error: %v", err)
	}

	log.Printf("edumanage shutdown complete")
	return nil
}
