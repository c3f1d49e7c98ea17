package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"net"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/spaceapi-core/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second

	// operationTimeout bounds publish, subscribe and unsubscribe acknowledgements.
	operationTimeout = 5 * time.Second

	disconnectQuiesceMs = 1000
	keepAlive           = 60 * time.Second

	maxQoS        = 2
	tlsMinVersion = tls.VersionTLS12
)

// clientOptions maps the mqtt config section onto paho options. The
// session is clean, reconnects are automatic and the will announces an
// unexpected disconnect on the system status topic.
func clientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	scheme := "tcp"
	var tlsCfg *tls.Config
	if cfg.Broker.TLS {
		scheme = "ssl"
		tlsCfg = &tls.Config{MinVersion: tlsMinVersion}
	}
	addr := net.JoinHostPort(cfg.Broker.Host, strconv.Itoa(cfg.Broker.Port))
	id := cfg.Broker.ClientID

	opts := pahomqtt.NewClientOptions().
		AddBroker(scheme+"://"+addr).
		SetClientID(id).
		SetCleanSession(true).
		SetKeepAlive(keepAlive).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(seconds(cfg.Reconnect.InitialDelay)).
		SetMaxReconnectInterval(seconds(cfg.Reconnect.MaxDelay)).
		SetWill(Topics{}.SystemStatus(), presencePayload("offline", id, "unexpected_disconnect"), 1, true)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username).SetPassword(cfg.Auth.Password)
	}
	if tlsCfg != nil {
		opts.SetTLSConfig(tlsCfg)
	}
	return opts
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// presence is the payload published on the system status topic.
type presence struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

func presencePayload(status, clientID, reason string) string {
	b, _ := json.Marshal(presence{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return string(b)
}

func onlinePayload(clientID string) string {
	return presencePayload("online", clientID, "")
}

func offlinePayload(clientID string) string {
	return presencePayload("offline", clientID, "graceful_shutdown")
}
