// Package services holds the domain services of the dispatcher: logic that spans
// sites and timelines without belonging to either.
//
// The package includes:
//   - NearestSiteResolver: picks the closest facility to a customer and the
//     closest relay point to that facility
//   - DeliveryPlanner: converts quantity and resolved distances into the offsets
//     at which each delivery stage is recorded
//
// Both services are stateless and safe for concurrent use.
package services
