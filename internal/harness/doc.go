// Package harness runs layout scenarios as executable contract tests.
//
// A scenario is a YAML file describing a sequence of layout operations
// against a fresh in-memory store, the outcome expected from each, and
// assertions over the final state.
//
// # Scenario Format
//
//	name: merge_end_to_end
//	description: "Partial updates merge into the stored layout"
//	flow:
//	  - op: load
//	    path: /test
//	  - op: advance
//	    advance: 1m
//	  - op: update
//	    path: /test
//	    settings: { left_width: 400 }
//	    expect:
//	      settings: { left_width: 400, theme: system }
//	assertions:
//	  - type: record_count
//	    count: 1
//	  - type: final_state
//	    path: /test
//	    expect: { left_width: 400 }
//
// # Operations
//
//   - load: layout.Service.Load (lazily creates the record)
//   - update: layout.Service.Update with the step's settings
//   - get: store.Store.Get, which never creates
//   - bootstrap: layout.Service.Bootstrap
//   - advance: moves the fake clock forward by the step's duration
//
// # Assertion Types
//
//   - record_count: the store holds exactly count records
//   - final_state: the record for (user, path, device) contains expect
//   - trace_count: op appears exactly count times in the trace
//   - same_record: the listed steps all returned the same record ID
//
// # Deterministic Testing
//
// Every run uses a fake clock starting at Epoch and sequential record IDs
// (rec-0001, rec-0002, ...), so traces are stable enough for golden files.
// MarshalTrace renders the golden form; AssertGolden compares it from go
// test, and the slipstream test command compares it against a directory of
// golden files.
package harness
