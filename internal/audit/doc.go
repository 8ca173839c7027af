// Package audit persists structured resolution events without ever blocking
// the resolution path. Entries go through a bounded channel; when the
// channel is full the entry is dropped and counted. A single consumer
// appends JSON lines to a dated local log, mirrors each line best-effort to
// a removable sink with a bounded tail rewrite on append failure, and prunes
// local files past the retention window at most once per calendar day.
package audit
