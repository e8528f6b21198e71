package api

import (
	"log"

	"github.com/muhammadolammi/jobmatchclient/internal/gateway"
)

// Client exposes the backend endpoints as typed calls over the gateway.
type Client struct {
	gw     *gateway.Gateway
	logger *log.Logger
}

func New(gw *gateway.Gateway, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{gw: gw, logger: logger}
}

func (c *Client) Gateway() *gateway.Gateway {
	return c.gw
}
