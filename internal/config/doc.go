// Package config manages user-level settings stored at ~/.wext/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the signing API credentials used by the sign command.
package config
