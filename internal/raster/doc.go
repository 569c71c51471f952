// Package raster holds the in-memory representation of gridded satellite
// variables and the load contract the analysis pipeline is built on.
//
// # Grid Conventions
//
// All rasters live on a regular geographic grid described by [Grid]:
//
//	Row 0 is the southernmost row; rows increase northward.
//	Column 0 is the westernmost column; columns increase eastward.
//	Values are stored row-major. Cell centers are offset half a cell
//	from the grid origin, so cell (0,0) is centered at
//	(MinLon + CellSize/2, MinLat + CellSize/2).
//
// Every raster participating in one computation must share an identical grid.
// There is no implicit resampling; a grid mismatch is a programming error and
// is rejected at construction or aggregation time.
//
// # Validity
//
// Each cell carries a validity flag. Cells are invalid when the upstream
// product marked them with its fill value, when the decoded value falls
// outside the variable's declared valid range, or when an external QC mask
// rejected them. Invalid cells are excluded from every aggregate. They are
// never coerced to zero and never interpolated.
//
// # Variable Encoding
//
// Satellite products ship integer-packed samples with a per-variable scale
// factor and fill value (MODIS convention: LST in Kelvin at scale 0.02 with
// fill 0, spectral reflectance at scale 0.0001). [Variable] describes this
// encoding and [Decode] applies it at the store boundary, so everything past
// the store works in physical units with an explicit validity mask.
//
// # Load Contract
//
// [Store.Load] returns [ErrDataUnavailable] when no raster exists for a
// (variable, date) key. Callers must treat that as "no contribution" to
// whatever they are aggregating, never as a zero sample.
package raster
