// Package catalog defines the species data model shared by the matching
// layers: alias records, the snapshot wire format, and the read-only match
// context the embedding session layer supplies per resolution.
package catalog
