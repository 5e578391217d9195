// Package config loads and validates the openhab-ghome configuration.
//
// Loading order:
//  1. built-in defaults
//  2. the YAML file, when a path is given
//  3. OHGHOME_* environment variables
//
// Secrets (MQTT password, InfluxDB token, the HomeGraph service account path)
// are best supplied through the environment. Validate reports every problem
// at once rather than stopping at the first.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
package config
