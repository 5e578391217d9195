package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementCommand     = "ghome_command"
	MeasurementDeviceState = "ghome_device_state"
)

// CommandPoint describes one executed assistant command.
type CommandPoint struct {
	DeviceID string
	Command  string
	ItemName string
	Value    string
	Status   string
	Duration time.Duration
}

// WriteCommand records an executed command. Device, command and status are
// tags; the written value and latency are fields.
func (c *Client) WriteCommand(p CommandPoint) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementCommand,
		map[string]string{
			"device_id": p.DeviceID,
			"command":   p.Command,
			"status":    p.Status,
		},
		map[string]interface{}{
			"item":        p.ItemName,
			"value":       p.Value,
			"duration_ms": p.Duration.Milliseconds(),
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteDeviceState records the translated state of a device. Points with no
// fields are dropped since InfluxDB rejects them.
func (c *Client) WriteDeviceState(deviceID string, fields map[string]interface{}) {
	if !c.IsConnected() || len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		MeasurementDeviceState,
		map[string]string{"device_id": deviceID},
		fields,
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}
