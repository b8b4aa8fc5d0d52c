package database

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ConnectNATS dials the message broker used for domain events.
func ConnectNATS(url, clientName string) (*nats.Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url must not be empty")
	}

	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}

	return conn, nil
}

// NATSStatus reports an error unless the connection is currently established.
func NATSStatus(conn *nats.Conn) error {
	if conn == nil {
		return fmt.Errorf("nats connection not configured")
	}
	if !conn.IsConnected() {
		return fmt.Errorf("nats connection %s", conn.Status())
	}
	return nil
}
