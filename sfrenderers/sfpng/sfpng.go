// Package sfpng rasterizes a stock and flow view for previews.
package sfpng

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"math"
	"sync"

	"cdr.dev/slog"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"oss.terrastruct.com/stockflow/lib/color"
	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/label"
	"oss.terrastruct.com/stockflow/lib/log"
	"oss.terrastruct.com/stockflow/sfflow"
	"oss.terrastruct.com/stockflow/sflink"
	"oss.terrastruct.com/stockflow/sfrenderers/sfsvg"
	"oss.terrastruct.com/stockflow/sfshape"
	"oss.terrastruct.com/stockflow/sfview"
)

const (
	DEFAULT_SCALE = 1.
	FONT_SIZE     = 11.
)

type RenderOpts struct {
	Pad       *int64
	Scale     *float64
	Selection []int
}

var (
	fontOnce sync.Once
	fontTTF  *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontTTF, fontErr = truetype.Parse(goregular.TTF)
	})
	return fontTTF, fontErr
}

// Render draws r to a PNG. Elements that fail to lay out are logged and
// skipped.
func Render(ctx context.Context, r sfview.Reader, opts *RenderOpts) (_ []byte, err error) {
	if opts == nil {
		opts = &RenderOpts{}
	}
	pad := sfsvg.DEFAULT_PADDING
	if opts.Pad != nil {
		pad = int(*opts.Pad)
	}
	scale := DEFAULT_SCALE
	if opts.Scale != nil && *opts.Scale > 0 {
		scale = *opts.Scale
	}
	selected := make(map[int]bool, len(opts.Selection))
	for _, uid := range opts.Selection {
		selected[uid] = true
	}

	vb := sfsvg.ViewBox(r, pad)
	w := int(math.Ceil(vb.Width() * scale))
	h := int(math.Ceil(vb.Height() * scale))
	dc := gg.NewContext(w, h)
	dc.SetColor(color.RGBA(color.Fill))
	dc.Clear()

	ttf, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    FONT_SIZE * scale,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	dc.Scale(scale, scale)
	dc.Translate(-vb.Left, -vb.Top)

	p := &painter{dc: dc, r: r, selected: selected, piped: make(map[int]bool)}
	els := r.Elements()
	for _, kind := range []sfview.Kind{sfview.KindGroup, sfview.KindFlow, sfview.KindLink} {
		for _, el := range els {
			if el.Kind() != kind {
				continue
			}
			if err := p.draw(el); err != nil {
				log.Warn(ctx, "skipping element", slog.F("uid", el.GetUID()), slog.F("kind", kind.String()), slog.Error(err))
			}
		}
	}
	for _, el := range els {
		switch el.Kind() {
		case sfview.KindGroup, sfview.KindFlow, sfview.KindLink:
			continue
		}
		if err := p.draw(el); err != nil {
			log.Warn(ctx, "skipping element", slog.F("uid", el.GetUID()), slog.F("kind", el.Kind().String()), slog.Error(err))
		}
	}
	for _, el := range els {
		if f, ok := el.(sfview.Flow); ok && p.piped[f.UID] {
			p.drawValve(f)
		}
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type painter struct {
	dc       *gg.Context
	r        sfview.Reader
	selected map[int]bool
	piped    map[int]bool
}

func (p *painter) stroke(uid int) {
	if p.selected[uid] {
		p.dc.SetColor(color.RGBA(color.Selection))
		p.dc.SetLineWidth(2)
	} else {
		p.dc.SetColor(color.RGBA(color.Stroke))
		p.dc.SetLineWidth(1)
	}
	p.dc.Stroke()
}

func (p *painter) fillStroke(uid int, fill string) {
	p.dc.SetColor(color.RGBA(fill))
	p.dc.FillPreserve()
	p.stroke(uid)
}

func (p *painter) draw(el sfview.Element) error {
	if el.ZeroRadius() {
		return nil
	}
	switch el := el.(type) {
	case sfview.Group:
		box := geo.RectAround(el.X, el.Y, el.Width/2, el.Height/2)
		p.dc.DrawRoundedRectangle(box.Left, box.Top, box.Width(), box.Height(), sfsvg.MODULE_RADIUS)
		p.fillStroke(el.UID, color.Group)
		if el.Name != "" {
			p.dc.SetColor(color.RGBA(color.Label))
			p.dc.DrawStringAnchored(el.Name, box.Left+label.PADDING*2, box.Top+label.LineHeight, 0, 0)
		}
		return nil
	case sfview.Flow:
		return p.drawPipe(el)
	case sfview.Link:
		return p.drawLink(el)
	case sfview.Stock:
		box := geo.RectAround(el.X, el.Y, sfshape.StockWidth/2, sfshape.StockHeight/2)
		p.dc.DrawRectangle(box.Left, box.Top, box.Width(), box.Height())
		p.fillStroke(el.UID, color.Fill)
	case sfview.Module:
		box := geo.RectAround(el.X, el.Y, sfshape.ModuleWidth/2, sfshape.ModuleHeight/2)
		p.dc.DrawRoundedRectangle(box.Left, box.Top, box.Width(), box.Height(), sfsvg.MODULE_RADIUS)
		p.fillStroke(el.UID, color.Fill)
	case sfview.Aux:
		p.dc.DrawCircle(el.X, el.Y, sfshape.AuxRadius)
		p.fillStroke(el.UID, color.Fill)
	case sfview.Alias:
		if _, ok := p.r.Get(el.AliasOfUID); !ok {
			return fmt.Errorf("alias of missing uid %d: %w", el.AliasOfUID, sfview.ErrNotFound)
		}
		p.dc.SetDash(4, 3)
		p.dc.DrawCircle(el.X, el.Y, sfshape.AuxRadius)
		p.fillStroke(el.UID, color.Fill)
		p.dc.SetDash()
	case sfview.Cloud:
		r := sfshape.CloudRadius
		for _, c := range [][3]float64{{-r / 2, 0, r / 2}, {0, -r / 3, r / 2}, {r / 2, 0, r / 2}} {
			p.dc.DrawCircle(el.X+c[0], el.Y+c[1], c[2])
		}
		p.fillStroke(el.UID, color.Fill)
		return nil
	default:
		return fmt.Errorf("unknown element %T", el)
	}
	p.drawLabel(el)
	return nil
}

func (p *painter) drawPipe(f sfview.Flow) error {
	pts, err := sfflow.PipeRoute(p.r, f)
	if err != nil {
		return err
	}
	p.piped[f.UID] = true
	n := len(pts)
	θ := pts[n-2].AngleTo(pts[n-1])
	p.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.dc.LineTo(pt.X, pt.Y)
	}
	p.dc.SetLineWidth(sfsvg.PIPE_WIDTH)
	p.dc.SetColor(color.RGBA(color.Stroke))
	p.dc.Stroke()
	p.arrowhead(pts[n-1], θ, sfsvg.ARROWHEAD_LENGTH+2, sfsvg.ARROWHEAD_WIDTH+4)
	return nil
}

func (p *painter) drawValve(f sfview.Flow) {
	if f.IsZeroRadius {
		return
	}
	p.dc.DrawCircle(f.X, f.Y, sfshape.ValveRadius)
	p.fillStroke(f.UID, color.Fill)
	p.drawLabel(f)
}

func (p *painter) drawLink(l sfview.Link) error {
	from, err := sfview.Lookup(p.r, l.FromUID)
	if err != nil {
		return err
	}
	to, err := sfview.Lookup(p.r, l.ToUID)
	if err != nil {
		return err
	}
	g := sflink.Compute(l, from, to, nil)
	if g.IsStraight {
		p.dc.DrawLine(g.Start.X, g.Start.Y, g.End.X, g.End.Y)
	} else {
		c := g.Circle
		a0 := c.AngleOf(g.Start)
		a1 := c.AngleOf(g.End)
		// gg arcs run clockwise on screen from a0 to a1
		if !g.Sweep {
			a0, a1 = a1, a0
		}
		for a1 < a0 {
			a1 += 2 * math.Pi
		}
		p.dc.DrawArc(c.X, c.Y, c.R, a0, a1)
	}
	p.stroke(l.UID)
	p.arrowhead(g.End, g.ArrowAngle, sfsvg.ARROWHEAD_LENGTH, sfsvg.ARROWHEAD_WIDTH)
	return nil
}

func (p *painter) arrowhead(tip geo.Point, θ, length, width float64) {
	pts := sflink.Arrowhead(tip, θ, length, width)
	p.dc.MoveTo(pts[0].X, pts[0].Y)
	p.dc.LineTo(pts[1].X, pts[1].Y)
	p.dc.LineTo(pts[2].X, pts[2].Y)
	p.dc.ClosePath()
	p.dc.SetColor(color.RGBA(color.Stroke))
	p.dc.Fill()
}

func (p *painter) drawLabel(el sfview.Element) {
	named, ok := el.(sfview.Named)
	if !ok || named.GetName() == "" {
		return
	}
	s, ok := sfshape.Of(el)
	if !ok {
		return
	}
	rw, rh := s.HalfExtents()
	c := el.GetCenter()
	a := label.Layout(c.X, c.Y, rw, rh, named.GetLabelSide(), named.GetName())
	ax := 0.
	switch a.Align {
	case "middle":
		ax = .5
	case "end":
		ax = 1
	}
	p.dc.SetColor(color.RGBA(color.Label))
	for i, line := range label.Lines(named.GetName()) {
		p.dc.DrawStringAnchored(line, a.X, a.Baselines[i], ax, 0)
	}
}
