// Package aliasstore persists operator-learned aliases in SQLite so that
// corrections made in the field survive restarts and catalog refreshes.
package aliasstore
