// Package config loads env-tagged structs with caarlos0/env.
//
// A .env file in the working directory is read once on first use (missing
// files are fine) and never overrides variables already set. Each config
// type is parsed once and cached, so packages can call Load for their own
// Config without coordinating:
//
//	var cfg identity.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// Types with a Validate() error method are validated after parsing; a
// failure is returned joined with ErrInvalidConfig and nothing is cached.
package config
