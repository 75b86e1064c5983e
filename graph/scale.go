package graph

import (
	"mtalk/talk"
)

// DefaultScreen is used when neither talk nor configuration specify display
// geometry.
var DefaultScreen = talk.Size{Width: 1024, Height: 768}

// Scale converts slide coordinates between design units (stored in position
// file) and screen units as P/Q ratio.
type Scale struct {
	P, Q int
}

// Identity scale leaves coordinates untouched.
var Identity = Scale{P: 1, Q: 1}

func (s Scale) isIdentity() bool {
	return s.P == s.Q || s.P == 0 || s.Q == 0
}

// ToScreen converts design units to screen units.
func (s Scale) ToScreen(v int) int {
	if s.isIdentity() {
		return v
	}
	return v * s.P / s.Q
}

// ToDesign converts screen units to design units.
func (s Scale) ToDesign(v int) int {
	if s.isIdentity() {
		return v
	}
	return v * s.Q / s.P
}

// Resolution is display geometry derived from talk design size and actual
// display size.
type Resolution struct {
	Screen   talk.Size
	Scale    Scale
	CardEdge int
}

// NewResolution works out screen size and scaling. Zero sizes are treated
// as unspecified. When display aspect ratio differs from design one, talk is
// scaled to fit limiting dimension.
func NewResolution(design, display talk.Size) Resolution {
	r := Resolution{Screen: DefaultScreen, Scale: Identity, CardEdge: talk.DefaultCardEdge}
	switch {
	case design.IsZero() && display.IsZero():
		return r
	case design.IsZero():
		r.Screen = display
		return r
	case display.IsZero(), design == display:
		r.Screen = design
		return r
	case display.Width*design.Height == display.Height*design.Width:
		r.Scale = Scale{P: display.Height, Q: design.Height}
		r.Screen = display
	case display.Width*design.Height > display.Height*design.Width:
		// wider than designed, unused space at sides
		r.Scale = Scale{P: display.Height, Q: design.Height}
		r.Screen = talk.Size{Width: design.Width * r.Scale.P / r.Scale.Q, Height: display.Height}
	default:
		// narrower than designed, unused space at top and bottom
		r.Scale = Scale{P: display.Width, Q: design.Width}
		r.Screen = talk.Size{Width: display.Width, Height: design.Height * r.Scale.P / r.Scale.Q}
	}
	r.CardEdge = r.Scale.ToScreen(r.CardEdge)
	return r
}
