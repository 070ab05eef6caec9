package natsclient

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/ShortLink/config"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultHost           = "localhost"
	defaultPort           = 4222
	clientName            = "shortlink"
)

// Connect creates a NATS connection (with JetStream available) using application config.
func Connect(cfg config.NATSConfig) (*nats.Conn, nats.JetStreamContext, error) {
	opts := []nats.Option{
		nats.Timeout(defaultConnectTimeout),
		nats.Name(clientName),
		nats.MaxReconnects(-1),
	}

	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	conn, err := nats.Connect(URL(cfg), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("nats: connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("nats: init jetstream: %w", err)
	}

	return conn, js, nil
}

// URL builds the server URL, filling in localhost:4222 when unset.
func URL(cfg config.NATSConfig) string {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("nats://%s:%d", host, port)
}
