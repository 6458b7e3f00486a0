// Package pixel implements the native color encodings and local frame mirrors used by the panel
// controllers.
//
// The models and images are compatible with Go's native [color.Color] and [image.Image] /
// [draw.Image] interfaces, so a mirror can be handed to any drawing routine.
package pixel
