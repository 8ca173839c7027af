// Command vink resolves spoken species names against a catalog snapshot and
// manages the learned-alias database, catalog snapshots, and audit trail.
package main
