// Package descale derives the parameters handed to the descale engine for
// one native-height hypothesis: resize kernel, descale axes, base
// dimensions and the letterbox-aware cropping arguments.
//
// Everything here is pure and deterministic. The package never touches
// pixels; the engine does.
//
//	geom, _ := descale.NewGeometry(descale.Size{Width: 1920, Height: 1080}, descale.Crop{}, 0, 0)
//	args := descale.CroppingArgs(geom, 719.5, descale.ModeBoth)
package descale
