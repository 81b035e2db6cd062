// Package configuration provides loading facilities for fswatch's YAML
// configuration files, dotenv-style environment files, and environment
// variable overrides.
package configuration
