package descale

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kbukum/getfnative/errors"
)

// Size is a frame size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// ParseSize parses "WIDTHxHEIGHT" as printed by engine probes.
func ParseSize(s string) (Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Size{}, errors.InvalidInput("size", fmt.Sprintf("expected WIDTHxHEIGHT, got %q", s))
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return Size{}, errors.InvalidInput("size", fmt.Sprintf("bad width in %q", s)).WithCause(err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return Size{}, errors.InvalidInput("size", fmt.Sprintf("bad height in %q", s)).WithCause(err)
	}
	if width <= 0 || height <= 0 {
		return Size{}, errors.InvalidInput("size", fmt.Sprintf("dimensions must be positive, got %q", s))
	}
	return Size{Width: width, Height: height}, nil
}

// Crop is the letterbox border already removed from the clip.
type Crop struct {
	Top    int `json:"top" mapstructure:"top"`
	Bottom int `json:"bottom" mapstructure:"bottom"`
	Left   int `json:"left" mapstructure:"left"`
	Right  int `json:"right" mapstructure:"right"`
}

// Validate rejects negative borders.
func (c Crop) Validate() error {
	if c.Top < 0 || c.Bottom < 0 || c.Left < 0 || c.Right < 0 {
		return errors.InvalidConfig("descale.crop", fmt.Sprintf("crop borders must not be negative (%+v)", c))
	}
	return nil
}

// Geometry describes the analysed clip: its letterbox-free size, the
// removed borders and the integer base dimensions of the upscale.
type Geometry struct {
	Clip Size `json:"clip"`
	Crop Crop `json:"crop"`
	Base Size `json:"base"`
}

// NewGeometry validates the clip and crop and resolves the base size.
// A zero base dimension selects the full (uncropped) dimension.
func NewGeometry(clip Size, crop Crop, baseWidth, baseHeight int) (Geometry, error) {
	if clip.Width <= 0 || clip.Height <= 0 {
		return Geometry{}, errors.InvalidConfig("descale.clip", fmt.Sprintf("clip size must be positive (got %s)", clip))
	}
	if err := crop.Validate(); err != nil {
		return Geometry{}, err
	}
	g := Geometry{Clip: clip, Crop: crop}
	g.Base = ResolveBase(g.Full(), baseWidth, baseHeight)
	return g, nil
}

// Full returns the clip size with the letterbox borders restored.
func (g Geometry) Full() Size {
	return Size{
		Width:  g.Clip.Width + g.Crop.Left + g.Crop.Right,
		Height: g.Clip.Height + g.Crop.Top + g.Crop.Bottom,
	}
}

// ResolveBase picks base dimensions with the same parity as the full
// frame. Non-positive requests default to the full dimension.
func ResolveBase(full Size, baseWidth, baseHeight int) Size {
	if baseWidth <= 0 {
		baseWidth = full.Width
	}
	if baseHeight <= 0 {
		baseHeight = full.Height
	}
	return Size{
		Width:  matchParity(full.Width, baseWidth),
		Height: matchParity(full.Height, baseHeight),
	}
}

func matchParity(full, base int) int {
	return full - ((base-full)%2+2)%2
}

// Args are the engine's descale and rescale arguments for one candidate.
// Width and Height are always set; the Src fields only apply to the axes
// selected by Mode.
type Args struct {
	Mode      Mode    `json:"mode"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	SrcWidth  float64 `json:"src_width,omitempty"`
	SrcHeight float64 `json:"src_height,omitempty"`
	SrcLeft   float64 `json:"src_left,omitempty"`
	SrcTop    float64 `json:"src_top,omitempty"`
}

// CroppingArgs computes letterbox-aware descale arguments for srcHeight.
// The hypothesised native frame is centred in the base frame; the crop is
// scaled into native space and each margin is floored to whole pixels,
// with the remainder carried in SrcLeft/SrcTop.
func CroppingArgs(g Geometry, srcHeight float64, mode Mode) Args {
	full := g.Full()
	ratio := srcHeight / float64(full.Height)
	srcWidth := ratio * float64(full.Width)

	args := Args{Mode: mode, Width: full.Width, Height: full.Height}
	if mode.Width() {
		left := (float64(g.Base.Width)-srcWidth)/2 + ratio*float64(g.Crop.Left)
		right := (float64(g.Base.Width)-srcWidth)/2 + ratio*float64(g.Crop.Right)
		args.Width = g.Base.Width - int(math.Floor(left)) - int(math.Floor(right))
		args.SrcWidth = ratio * float64(g.Clip.Width)
		args.SrcLeft = left - math.Floor(left)
	}
	if mode.Height() {
		top := (float64(g.Base.Height)-srcHeight)/2 + ratio*float64(g.Crop.Top)
		bottom := (float64(g.Base.Height)-srcHeight)/2 + ratio*float64(g.Crop.Bottom)
		args.Height = g.Base.Height - int(math.Floor(top)) - int(math.Floor(bottom))
		args.SrcHeight = ratio * float64(g.Clip.Height)
		args.SrcTop = top - math.Floor(top)
	}
	return args
}

// Fields returns the arguments as engine keyword arguments, omitting the
// src fields of axes outside Mode.
func (a Args) Fields() map[string]any {
	f := map[string]any{"width": a.Width, "height": a.Height}
	if a.Mode.Width() {
		f["src_width"] = a.SrcWidth
		f["src_left"] = a.SrcLeft
	}
	if a.Mode.Height() {
		f["src_height"] = a.SrcHeight
		f["src_top"] = a.SrcTop
	}
	return f
}
