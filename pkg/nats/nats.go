package nats

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/shenikar/incident_triage/internal/config"
	"github.com/sirupsen/logrus"
)

// Connect подключается к NATS с автоматическим переподключением
func Connect(cfg *config.Config, log *logrus.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name(cfg.NATSName),
		nats.ReconnectWait(cfg.NATSReconnectWait),
		nats.MaxReconnects(cfg.NATSMaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("Disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("Reconnected to NATS")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}
	return conn, nil
}
