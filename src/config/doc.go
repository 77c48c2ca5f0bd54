// Package config defines the configuration of a HyParView process.
//
// Config gathers the parameters of the transport, the HTTP service, the node
// and the protocol itself. The mapstructure tags are the names of the command
// line flags and of the keys of the optional configuration file, so that viper
// can fill a Config from either source.
package config
