// Package events publishes finished sessions on NATS for anything else that
// wants to watch the game (scoreboards, analytics).
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/AaronC17/Projecto-Moviles-2/internal/types"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var ErrNoURL = errors.New("events: empty nats url")

type Publisher struct {
	nc      *nats.Conn
	subject string
	log     *zap.Logger
}

func Connect(url, subject string, log *zap.Logger) (*Publisher, error) {
	if url == "" {
		return nil, ErrNoURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("events")

	nc, err := nats.Connect(url,
		nats.Name("balanza"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect: %w", err)
	}
	return &Publisher{nc: nc, subject: subject, log: log}, nil
}

// RecordSummary publishes the RESUMEN frame of a finished session.
func (p *Publisher) RecordSummary(ctx context.Context, summary engine.Summary) error {
	subject, payload, err := summaryMessage(p.subject, summary)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("events: flush: %w", err)
	}
	p.log.Debug("summary published", zap.String("subject", subject), zap.Int("bytes", len(payload)))
	return nil
}

func (p *Publisher) Close() error {
	return p.nc.Drain()
}

func summaryMessage(prefix string, summary engine.Summary) (string, []byte, error) {
	payload, err := types.Encode(types.NewSummary(&summary))
	if err != nil {
		return "", nil, fmt.Errorf("events: encode summary: %w", err)
	}
	return prefix + ".resumen", payload, nil
}
