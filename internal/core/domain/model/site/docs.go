// Package site models the two tiers of the facility directory: fulfillment
// facilities and relay points.
//
// Both tiers share one shape (id, unique name, location) and differ only by Kind.
// Sites are value objects; the dispatcher reads them and never changes them.
package site
