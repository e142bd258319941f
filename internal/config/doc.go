// Package config provides configuration management for the introductions gateway.
//
// Configuration is loaded from environment variables using the env package.
// The bind address, the port and, for the mongo backend, the connection
// string are required; everything else has a default suitable for
// development.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
