// Package file provides the TOML file-backed configuration store.
package file
