// Package pipeline orchestrates resolution over ranked speech hypotheses.
//
// Each call walks the hypotheses strictly best-first: a fast path of exact
// alias lookups, then a bounded number of heavy cascade attempts, each under
// its own inline timeout. Attempts that exceed the inline budget move to a
// bounded pending buffer consumed by a single background worker whose
// outcomes are delivered out of band; the original call then reports a
// typed "queued" result instead of blocking. Exactly one result is returned
// per call.
package pipeline
