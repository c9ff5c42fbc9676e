// Package encoding defines the effective encoding configuration handed to
// the command builder, the optional watermark, trim and thumbnail specs that
// hang off it, and Overrides, the caller-supplied partial configuration.
package encoding
