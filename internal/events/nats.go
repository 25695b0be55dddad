package events

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/callcenter-agent/internal/model"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
)

const (
	streamName     = "DIALOGUE_EVENTS"
	subjectPrefix  = "dialogue"
	streamMaxAge   = 24 * time.Hour
	publishTimeout = 2 * time.Second
)

// Config holds NATS connection configuration.
type Config struct {
	URL      string
	CAFile   string
	CertFile string
	KeyFile  string
	Token    string
}

// NATSPublisher publishes session events to a JetStream stream.
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect establishes the NATS connection and ensures the event
// stream exists.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	if cfg.CAFile != "" && cfg.CertFile != "" && cfg.KeyFile != "" {
		tlsConfig, err := createTLSConfig(cfg.CAFile, cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, nats.Secure(tlsConfig))
	}

	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &NATSPublisher{conn: nc, js: js, logger: log}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}

	return p, nil
}

func (p *NATSPublisher) ensureStream(ctx context.Context) error {
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ".>"},
		MaxAge:   streamMaxAge,
		Storage:  jetstream.MemoryStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure event stream: %w", err)
	}
	return nil
}

// PublishTurn publishes a turn-processed event.
func (p *NATSPublisher) PublishTurn(ctx context.Context, event model.SessionEvent) {
	p.publish(ctx, fmt.Sprintf("%s.turn.%s", subjectPrefix, event.SessionID), event)
}

// PublishSessionClosed publishes a session-closed event.
func (p *NATSPublisher) PublishSessionClosed(ctx context.Context, event model.SessionEvent) {
	p.publish(ctx, fmt.Sprintf("%s.closed.%s", subjectPrefix, event.SessionID), event)
}

// PublishFeedback publishes a feedback event.
func (p *NATSPublisher) PublishFeedback(ctx context.Context, event model.SessionEvent) {
	p.publish(ctx, fmt.Sprintf("%s.feedback.%s", subjectPrefix, event.SessionID), event)
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, event model.SessionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal session event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		p.logger.Warn("failed to publish session event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// IsConnected reports whether the NATS connection is up.
func (p *NATSPublisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

func createTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert: %w", err)
	}

	return &tls.Config{
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
