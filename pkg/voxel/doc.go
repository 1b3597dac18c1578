// Package voxel samples a source surface on a regular 3D lattice and
// classifies every lattice cell as outside, shell, interior or support.
// The resulting occupancy grid is the input of the brick merge stage.
package voxel
