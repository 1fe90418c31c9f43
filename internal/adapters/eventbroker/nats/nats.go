package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"filedepot/internal/config"
	"filedepot/internal/core/domain"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher emits finalized-file events to a JetStream stream so
// downstream consumers (indexers, scanners) pick them up even when
// they attach later.
type Publisher struct {
	logger *slog.Logger
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
}

// NewNATSPublisher connects and makes sure the stream exists
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {

	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to JetStream: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.Subject},
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &Publisher{
		conn:   conn,
		js:     js,
		config: cfg,
		logger: logger,
	}, nil
}

// PublishFileFinalized publishes the event. Persisting the merge never
// depends on this call; the caller logs and carries on if it fails.
func (p *Publisher) PublishFileFinalized(ctx context.Context, event domain.FileFinalized) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal finalized event: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.config.Subject, data); err != nil {
		return fmt.Errorf("failed to publish finalized event: %w", err)
	}

	p.logger.Info("published file finalized event",
		slog.String("fileId", event.FileID.String()),
		slog.String("sessionId", event.SessionID.String()),
		slog.Bool("dedup", event.Dedup))
	return nil
}

// Close graceful shutdown
func (p *Publisher) Close() error {
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
			return err
		}
	}
	return nil
}
