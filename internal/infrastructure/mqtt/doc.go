// Package mqtt provides MQTT connectivity for the SpaceAPI server.
//
// The server uses the broker for two things:
//   - announcing accepted sensor writes and the latest status document to
//     dashboards, home automation and chat bots
//   - optionally receiving sensor values from trusted devices on the LAN
//     (see internal/ingest)
//
// # Security Considerations
//
//   - TLS is recommended when the broker is not on the same host (cfg.Broker.TLS=true)
//   - The ingest topic bypasses session signatures; restrict it with a broker ACL
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.SensorUpdate("temp_room")
//	err = client.Publish(topic, payload, client.QoS(), true)
package mqtt
