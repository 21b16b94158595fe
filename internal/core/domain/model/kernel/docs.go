// Package kernel provides the value objects shared by every part of the dispatch
// domain.
//
// The package includes:
//   - Location: an immutable point in the dispatch plane with Euclidean distance
//   - OrderID: the caller-supplied (or generated) key of a delivery timeline
//   - UUID: identifiers of facilities and relay points
//
// Values are immutable and safe to share between goroutines; zero values fail
// validation so that an unconstructed value never reaches a calculation.
package kernel
