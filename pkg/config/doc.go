// Package config provides configuration management for llamagate.
//
// Configuration is assembled from, in increasing precedence:
//
//  1. Default values (defined in defaults.go)
//  2. Values from a YAML file
//  3. A dotenv file, loaded into the process environment by LoadDotEnv
//  4. LLAMAGATE_SECTION_FIELD environment variables
//  5. Command-line flags, applied by the caller
//
// The result is validated and every failing field is reported at once in a
// ValidationError.
//
// # Loading
//
//	if err := config.LoadDotEnv(".env"); err != nil {
//	    return err
//	}
//	cfg, err := config.LoadConfigWithEnvOverrides("llamagate.yaml")
//
// An empty path loads the built-in defaults, so the service runs with no
// configuration file at all: it listens on 127.0.0.1:3000 and forwards to
// the Gaia llama3b endpoint with temperature 0.7 and max_tokens 1000.
//
// # Hot reload
//
// Watcher observes the configuration file with fsnotify, reloads it with
// LoadConfigWithEnvOverrides and calls back with each configuration that
// loads and validates. Callers decide which settings
// may change at runtime; the listener address, for instance, cannot.
package config
