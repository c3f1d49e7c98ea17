// Package influxdb records sensor history in InfluxDB v2.
//
// Every accepted numeric sensor write becomes a point in the sensor_value
// measurement; every write attempt is counted in sensor_updates. Writes are
// non-blocking and batched by the client library, and asynchronous write
// errors are delivered to the callback set with SetOnError.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Space.Name)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // history is optional
//	}
//	defer client.Close()
//
//	client.WriteSensorValue("temperature", "temp_room", "Hackcenter", 21.5, time.Now())
package influxdb
