// Package pipeline runs the full quasi-potential computation for one
// problem: a local solve per stable equilibrium (in parallel, each with its
// own grid state), the global stitch at the saddles, and the vector field
// decomposition of the stitched surface.
package pipeline
