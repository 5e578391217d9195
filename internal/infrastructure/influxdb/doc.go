// Package influxdb writes bridge telemetry to InfluxDB v2.
//
// Two measurements are recorded:
//   - ghome_command: one point per executed assistant command, tagged with
//     device, command and result status
//   - ghome_device_state: the translated state fields of each device seen in
//     a QUERY or report-state round
//
// Writes are non-blocking and batched by the official client; failures are
// delivered to the SetOnError callback. Telemetry is optional: when disabled
// Connect returns ErrDisabled and callers run without it.
package influxdb
