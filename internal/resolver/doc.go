// Package resolver wires the catalog index, learned-alias store, matching
// cascade, resolution pipeline, and audit trail into one service. It is the
// seam the CLI and any embedding application talk to.
package resolver
