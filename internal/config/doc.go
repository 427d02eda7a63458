// Package config loads memoria's engine configuration from a YAML file on
// disk, layering defaults, a user config file, and environment variable
// overrides, in that order of increasing precedence.
package config
