// Package settings implements the open-ended layout settings document.
//
// A Document maps setting names to a closed set of primitive values: Bool,
// Number and String. There is no fixed schema; unknown keys survive every
// update unchanged. Nested objects, arrays and null are rejected at parse
// time with ErrInvalid, so every document is flat.
//
// Merge is shallow: keys in the partial document replace keys in the base,
// keys absent from the partial are kept. Because documents are flat there is
// nothing to recurse into; should nested values ever be admitted they would
// be replaced wholesale, not deep-merged.
//
// The canonical defaults live in defaults.cue, embedded at build time and
// checked against a CUE schema that admits only bool, number and string
// values. Defaults returns a fresh copy on every call.
package settings
