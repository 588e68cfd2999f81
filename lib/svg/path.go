package svg

import (
	"fmt"
	"math"
	"strings"

	"oss.terrastruct.com/stockflow/lib/geo"
)

// PathContext builds SVG path data in absolute coordinates.
type PathContext struct {
	Commands []string
	Start    geo.Point
	Current  geo.Point
}

func chopPrecision(f float64) float64 {
	f = math.Round(f*10000) / 10000
	if f == 0 {
		// no "-0" in output
		return 0
	}
	return f
}

func NewPathContext() *PathContext {
	return &PathContext{}
}

func (c *PathContext) StartAt(p geo.Point) {
	c.Start = p
	c.Current = p
	c.Commands = append(c.Commands, fmt.Sprintf("M %v %v", chopPrecision(p.X), chopPrecision(p.Y)))
}

func (c *PathContext) L(p geo.Point) {
	c.Commands = append(c.Commands, fmt.Sprintf("L %v %v", chopPrecision(p.X), chopPrecision(p.Y)))
	c.Current = p
}

func (c *PathContext) H(x float64) {
	c.Commands = append(c.Commands, fmt.Sprintf("H %v", chopPrecision(x)))
	c.Current.X = x
}

func (c *PathContext) V(y float64) {
	c.Commands = append(c.Commands, fmt.Sprintf("V %v", chopPrecision(y)))
	c.Current.Y = y
}

// A draws a circular arc of radius r to p.
func (c *PathContext) A(r float64, largeArc, sweep bool, p geo.Point) {
	c.Commands = append(c.Commands, fmt.Sprintf("A %v %v 0 %d %d %v %v",
		chopPrecision(r), chopPrecision(r),
		flag(largeArc), flag(sweep),
		chopPrecision(p.X), chopPrecision(p.Y),
	))
	c.Current = p
}

func (c *PathContext) Z() {
	c.Commands = append(c.Commands, "Z")
	c.Current = c.Start
}

// Polyline moves to the first point and draws lines through the rest.
func (c *PathContext) Polyline(pts []geo.Point) {
	for i, p := range pts {
		if i == 0 {
			c.StartAt(p)
		} else if p.Y == c.Current.Y && p.X != c.Current.X {
			c.H(p.X)
		} else if p.X == c.Current.X && p.Y != c.Current.Y {
			c.V(p.Y)
		} else {
			c.L(p)
		}
	}
}

func (c *PathContext) PathData() string {
	return strings.Join(c.Commands, " ")
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
