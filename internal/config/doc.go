// Package config handles YAML configuration loading and validation.
package config
