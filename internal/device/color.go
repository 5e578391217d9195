package device

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// hsv is an openHAB colour state: hue in degrees, saturation and brightness
// in percent.
type hsv struct {
	h, s, v float64
}

// parseHSV parses an openHAB "h,s,b" colour state.
func parseHSV(state string) (hsv, error) {
	parts := strings.Split(state, ",")
	if len(parts) != 3 {
		return hsv{}, fmt.Errorf("%w: colour %q", ErrMalformedState, state)
	}
	var vals [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return hsv{}, fmt.Errorf("%w: colour %q", ErrMalformedState, state)
		}
		vals[i] = f
	}
	c := hsv{h: vals[0], s: vals[1], v: vals[2]}
	if c.s < 0 || c.s > 100 || c.v < 0 || c.v > 100 {
		return hsv{}, fmt.Errorf("%w: colour %q out of range", ErrMalformedState, state)
	}
	return c, nil
}

// spectrumRGB packs the colour into a 24-bit 0xRRGGBB integer.
func (c hsv) spectrumRGB() int {
	h := math.Mod(c.h, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsv(h, c.s/100, c.v/100).Clamped().RGB255()
	return int(r)<<16 | int(g)<<8 | int(b)
}

// String formats the colour as an openHAB command value.
func (c hsv) String() string {
	return formatComponent(c.h) + "," + formatComponent(c.s) + "," + formatComponent(c.v)
}

// hsvFromSpectrumRGB unpacks a 24-bit RGB integer into an openHAB colour.
// Components are rounded to two decimals, which keeps the RGB round trip
// within one unit per channel.
func hsvFromSpectrumRGB(rgb int) hsv {
	r := rgb / 65536
	g := (rgb % 65536) / 256
	b := rgb % 256
	h, s, v := colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}.Hsv()
	hue := round2(h)
	if hue >= 360 {
		hue = 0
	}
	return hsv{h: hue, s: round2(s * 100), v: round2(v * 100)}
}

func formatComponent(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
