// Package textutil normalizes spoken-input text for matching.
//
// Normalization lowercases, strips diacritics, maps a few symbols to their
// spoken Dutch equivalents, and collapses everything that is not a letter or
// digit into single spaces. All matching layers (index keys, hypotheses,
// aliases) run through the same normalization so comparisons stay consistent.
package textutil
