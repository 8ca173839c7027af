// Package matcher turns one normalized spoken hypothesis into a typed match
// outcome. It runs a fixed-priority cascade: exact canonical and alias
// matches restricted to the session's working and allowed sets first, then
// pooled fuzzy stages scored by combined text/phonetic/prior similarity, and
// finally a threshold-and-margin decision over the pooled candidates.
//
// The cascade never returns an error to callers; failures surface as typed
// NoMatch reasons so a partial candidate set always beats aborting the
// resolution.
package matcher
