// Package imaging trims transparent padding from sprite images.
//
// The package works on standard Go image.Image values and provides two
// croppers:
//   - CropSprite trims a standalone sprite to its own content.
//   - CropSpritesheet trims every frame of a horizontal spritesheet to one
//     shared box so that all frames keep identical dimensions.
//
// Both are pure: they never modify their input and return a new image.
// Persisting results is done separately with Save.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - BoundingBox values are relative to the image's own Bounds().Min
//   - (X1,Y1) is inclusive (top-left), (X2,Y2) is exclusive (bottom-right)
//   - Spritesheet boxes are frame-local: relative to each frame's origin
//
// # Content Threshold
//
// A pixel is content when its alpha is greater than zero. There is no
// tolerance, so faint anti-aliased pixels keep the box from shrinking.
//
// # Alpha Channel
//
// HasAlpha decides from the pixel layout: NRGBA, RGBA (and their 16-bit
// variants), NYCbCrA and Alpha images qualify; paletted, gray, YCbCr and CMYK
// images do not. PNG files loaded with Open are judged by the color type in
// their header, so a truecolor file with a tRNS color key has no alpha
// channel even though it decodes to NRGBA. Save writes PNG output with an
// alpha channel whenever the image has one, even if every pixel is opaque.
//
// # Skips
//
// The croppers return ErrNoAlpha or ErrEmpty when there is nothing to do.
// These are expected outcomes for a batch of mixed assets, not failures.
//
// # Spritesheet Geometry
//
// A sheet with n frames has frame width width/n. If the width is not an
// exact multiple of n the remainder columns on the right are ignored and
// dropped from the output; SheetCrop.Remainder reports how many.
package imaging
