// Package presets holds the static catalogue of platform presets and merges
// them with defaults and caller overrides into an effective encoding
// configuration.
//
// The catalogue is embedded at build time and parsed once. Lookups are
// case-insensitive, and an unknown or empty preset name resolves to the
// defaults alone rather than failing.
package presets
