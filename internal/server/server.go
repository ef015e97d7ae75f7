package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"procurerisk/engine"
	"procurerisk/rules"
	"procurerisk/util"
)

type Server struct {
	port     int
	engine   *engine.Engine
	denylist *rules.VendorDenylist
	alerts   util.Publisher
	services rules.ServicesConfig
	authKeys map[string][]byte
	logger   *slog.Logger
}

// NewServer wires the HTTP API. denylist and alerts may be nil when the
// vendorDenylist rule or NATS are not configured.
func NewServer(eng *engine.Engine, denylist *rules.VendorDenylist, alerts util.Publisher, services rules.ServicesConfig, authKeys map[string][]byte, logger *slog.Logger) *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	NewServer := &Server{
		port:     port,
		engine:   eng,
		denylist: denylist,
		alerts:   alerts,
		services: services,
		authKeys: authKeys,
		logger:   logger,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
