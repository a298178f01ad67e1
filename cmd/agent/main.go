package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"gp-captain-panel/internal/agent"
	"gp-captain-panel/internal/logger"
	"gp-captain-panel/internal/model"
	"gp-captain-panel/pkg/panelclient"
)

// agentConfig holds the agent's environment configuration.
type agentConfig struct {
	PanelURL string `envconfig:"PANEL_URL" default:"http://localhost:8080"`
	Account  string `envconfig:"BOT_ACCOUNT" required:"true"` // e.g. "br14_SomePlayer"
	ClientID string `envconfig:"BOT_CLIENT_ID" default:""`    // generated when empty
	Debug    bool   `envconfig:"AGENT_DEBUG" default:"false"`
}

func main() {
	_ = godotenv.Load()

	var cfg agentConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}

	log := logger.New("gp-captain-agent", cfg.Debug)

	client := panelclient.New(cfg.PanelURL)

	source := agent.ConfigSourceFunc(func(ctx context.Context) (*model.BotConfig, error) {
		c, _, err := client.GetConfig(ctx, cfg.Account)
		return c, err
	})
	heartbeats := agent.HeartbeatFunc(func(ctx context.Context, account, clientID string) error {
		_, err := client.Heartbeat(ctx, account, clientID)
		return err
	})

	// No browser here: the dry-run page logs every interaction, which is
	// enough to watch scheduling and heartbeats against a live panel.
	session := agent.NewSession(agent.DryRunPage{Log: log}, source, heartbeats, agent.Options{
		Account:  cfg.Account,
		ClientID: cfg.ClientID,
		Logger:   log,
	})

	log.Info().
		Str("panel", cfg.PanelURL).
		Str("account", cfg.Account).
		Str("client_id", session.ClientID()).
		Msg("agent starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("agent stopped")
		return
	}
	log.Info().Msg("agent stopped")
}
