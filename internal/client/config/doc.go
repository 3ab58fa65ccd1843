// Package config loads runtime settings for the FinBroker CLI.
//
// Sources are applied in order of increasing precedence: built-in defaults,
// a JSON file given via -c/-config, then command-line flags.
package config
