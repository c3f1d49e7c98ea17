// Package config loads the SpaceAPI server configuration.
//
// Load reads a YAML file over built-in defaults, applies SPACEAPI_*
// environment overrides and validates the result. Secrets such as the
// Redis URL, broker password and InfluxDB token are best supplied through
// the environment rather than the file.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	log.Info("serving", "space", cfg.Space.Name)
package config
