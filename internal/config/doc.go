// Package config loads the ChainKit runtime configuration from a JSON file
// and fills in defaults for anything left unset.
package config
