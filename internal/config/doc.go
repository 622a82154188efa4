// Package config provides configuration parsing for vango-store.
//
// The configuration is stored in vango-store.json. This package handles
// loading, saving, and validating it. Every field is optional.
//
// # Configuration File Structure
//
//	{
//	  "store": {
//	    "interception": true,
//	    "debug": false
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "vango_store",
//	    "subsystem": ""
//	  },
//	  "tracing": {
//	    "tracerName": "vango-store"
//	  },
//	  "inspector": {
//	    "addr": "localhost:7331"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Logger(os.Stderr)
package config
