// Package sharpness scores photos for focus using the variance of the Laplacian.
//
// The score is a no-reference blur metric: sharp photos have strong, varied
// edge responses under a second-derivative filter, blurred photos respond
// weakly everywhere. The package returns the raw statistic; deciding what
// counts as "blurry" is a caller policy (see Assess and DefaultBlurThreshold).
//
// # Algorithm
//
//  1. Grayscale conversion: RGB -> luminance using ITU-R BT.601 weights
//     (0.299*R + 0.587*G + 0.114*B) on 8-bit channel values. Alpha is ignored.
//
//  2. Discrete Laplacian: every interior pixel is convolved with
//
//     0  1  0
//     1 -4  1
//     0  1  0
//
//     The outermost 1-pixel border produces no response at all. It is not
//     zero-padded, so frame edges cannot inflate the variance.
//
//  3. Population variance (divide by N) of the interior responses.
//
// # Degenerate Images
//
// Images narrower or shorter than 3 pixels have no interior. Score returns 0
// for them instead of an error; an upload flow treats that as "maximally
// blurry" and shows a warning rather than blocking the upload.
//
// # Properties
//
//   - A uniform image scores exactly 0.
//   - Adding a constant to every luminance value leaves the score unchanged.
//   - Scaling every luminance value by k scales the score by k².
//
// # Thread Safety
//
// All functions are pure over their inputs and may be called concurrently on
// different images. AssessBatch scores independent images in parallel.
package sharpness
