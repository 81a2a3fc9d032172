// Package domain discretizes an axis-aligned rectangle into a regular mesh
// of nodes and maps between integer node indices and continuous coordinates.
//
// What:
//
//   - Domain wraps [XLo,XHi]×[YLo,YHi] with a fixed resolution NX×NY.
//   - Node (I,J) maps to (XLo+I·HX, YLo+J·HY); storage is row-major, J*NX+I.
//   - Neighbor enumeration under Conn4 (N,E,S,W) or Conn8 (with diagonals).
//   - Start-point validation for front-propagation solvers.
//
// Why:
//
//   - Every grid-shaped artifact (local surfaces, the global surface,
//     decomposed vector fields) shares one Domain, so index↔coordinate
//     mapping lives in exactly one place.
//   - Placing a solver seed on the domain edge silently truncates the front;
//     ValidateStart rejects it up front.
//
// Complexity:
//
//   - Index, NodeAt, Point, Nearest, InBounds: O(1).
//   - Neighbors: O(d), d = 4 or 8.
//   - X, Y: O(NX), O(NY).
//
// Errors:
//
//   - ErrInvalidDomain: degenerate bounds, resolution below 2, non-finite
//     values, or a start point outside / on the boundary. Returned wrapped in
//     *DomainError, which names the offending field, value and bound.
package domain
