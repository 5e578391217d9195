// Package mqtt connects the bridge to an MQTT broker.
//
// It is the alternative command transport: instead of POSTing to the openHAB
// REST API, commands are published to the topic openHAB's MQTT event bus
// listens on (<prefix>/<item>/command). The bridge also keeps a retained
// status topic, backed by a last-will, so its liveness is visible.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	writer := mqtt.NewCommandPublisher(client, client.Topics(), byte(cfg.MQTT.QoS))
//	err = writer.SendCommand(ctx, "", "LivingRoom_Light", "ON")
//
// TLS should be enabled for any broker outside the local host.
package mqtt
