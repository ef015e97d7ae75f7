package services

import (
	"github.com/nats-io/nats.go"
)

// ConnectNats dials url, e.g. "nats://localhost:4222".
func ConnectNats(url string) (*nats.Conn, error) {
	return nats.Connect(url, nats.Name("procurerisk"))
}
