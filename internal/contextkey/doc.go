// Package contextkey derives the short identifiers that address layout
// records.
//
// A context is a (navigation path, device class) pair. Derive hashes the
// pair with SHA-256 under a versioned domain prefix and keeps the first
// KeyLength hex characters of the digest. The key is stable for identical
// input and carries no state.
//
// # Truncation
//
// Keeping 16 hex characters (64 bits) makes keys easy to scan in logs and
// database dumps at the cost of a small collision probability. KeyLength and
// Domain are versioned together: changing either one orphans every stored
// record, so a change requires a migration that rewrites context_key.
//
// Device defaults ("desktop" when the caller sends none) are applied by the
// layout package at the boundary, never here.
package contextkey
