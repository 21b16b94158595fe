// Package timeline models the delivery progress of a dispatched order.
//
// The package includes:
//   - Stage: the fixed, forward-only sequence of delivery phases
//   - StageEvent: an immutable record of entering a stage
//   - Timeline: the ordered history of one order, enforcing stage ordering and
//     terminal stages
//
// Key business rules:
//   - every timeline starts with Pending
//   - stages never recur and never go backwards
//   - Delivered and Cancelled are terminal
//   - stages armed by a superseded dispatch never reach a newer timeline
package timeline
