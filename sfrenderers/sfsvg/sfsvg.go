// Package sfsvg renders a stock and flow view to SVG.
package sfsvg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"cdr.dev/slog"

	"oss.terrastruct.com/stockflow/lib/color"
	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/go2"
	"oss.terrastruct.com/stockflow/lib/label"
	"oss.terrastruct.com/stockflow/lib/log"
	"oss.terrastruct.com/stockflow/lib/svg"
	"oss.terrastruct.com/stockflow/sfflow"
	"oss.terrastruct.com/stockflow/sflink"
	"oss.terrastruct.com/stockflow/sfshape"
	"oss.terrastruct.com/stockflow/sfview"
)

const (
	DEFAULT_PADDING = 20

	ARROWHEAD_LENGTH = 8.
	ARROWHEAD_WIDTH  = 6.
	PIPE_WIDTH       = 6.
	MODULE_RADIUS    = 5.
	SPARK_INSET      = .6
	FONT_SIZE        = 12
)

const stylesheet = `.sf-label{font-family:"Helvetica Neue",Arial,sans-serif;font-size:12px}` +
	`.sf-pipe-outline{fill:none;stroke-linejoin:miter}` +
	`.sf-pipe{fill:none;stroke-linejoin:miter}` +
	`.sf-link{fill:none}` +
	`.sf-spark{fill:none;stroke-width:1}` +
	`.sf-ghost{stroke-dasharray:4 3}`

type RenderOpts struct {
	Pad *int64
	// Selection is drawn highlighted.
	Selection []int
	// Target is a connector drop target, drawn highlighted.
	Target *int
	// SelectRect is a drag-select marquee in model coordinates.
	SelectRect *geo.Rect
	// ViewBox replaces the padded content bounds, e.g. with an editor's
	// visible region.
	ViewBox *geo.Rect
	// Series holds time series by variable name, drawn as sparklines.
	Series map[string][]float64
	// the svg will be scaled by this factor, if unset the svg will fit to screen
	Scale    *float64
	NoXMLTag *bool
}

type renderer struct {
	r        sfview.Reader
	opts     *RenderOpts
	selected map[int]bool
}

// ViewBox is the area Render draws: every element's bounds, padded.
func ViewBox(r sfview.Reader, pad int) geo.Rect {
	var rects []*geo.Rect
	for _, el := range r.Elements() {
		if l, ok := el.(sfview.Link); ok {
			rects = append(rects, sflink.Bounds(r, l))
		} else {
			rects = append(rects, sfshape.Bounds(el))
		}
	}
	vb := geo.CalcViewBox(rects)
	if vb == nil {
		vb = &geo.Rect{}
	}
	return vb.Pad(float64(pad))
}

// Render draws r. Elements whose geometry cannot be computed are logged and
// left out; the rest of the diagram still renders.
func Render(ctx context.Context, r sfview.Reader, opts *RenderOpts) ([]byte, error) {
	if opts == nil {
		opts = &RenderOpts{}
	}
	pad := DEFAULT_PADDING
	if opts.Pad != nil {
		pad = int(*opts.Pad)
	}
	rd := &renderer{
		r:        r,
		opts:     opts,
		selected: make(map[int]bool, len(opts.Selection)),
	}
	for _, uid := range opts.Selection {
		rd.selected[uid] = true
	}

	vb := ViewBox(r, pad)
	if opts.ViewBox != nil {
		vb = *opts.ViewBox
	}
	buf := &bytes.Buffer{}
	if opts.NoXMLTag == nil || !*opts.NoXMLTag {
		fmt.Fprint(buf, `<?xml version="1.0" encoding="utf-8"?>`)
	}
	w, h := vb.Width(), vb.Height()
	dimensions := ""
	if opts.Scale != nil {
		dimensions = fmt.Sprintf(` width="%v" height="%v"`, math.Ceil(w**opts.Scale), math.Ceil(h**opts.Scale))
	}
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" version="1.1" viewBox="%v %v %v %v"%s>`,
		vb.Left, vb.Top, w, h, dimensions)
	fmt.Fprintf(buf, `<style type="text/css"><![CDATA[%s]]></style>`, stylesheet)

	els := r.Elements()
	// groups sit behind pipes, pipes and links behind shapes
	passes := []func(sfview.Element) bool{
		func(el sfview.Element) bool { return el.Kind() == sfview.KindGroup },
		func(el sfview.Element) bool { return el.Kind() == sfview.KindFlow },
		func(el sfview.Element) bool { return el.Kind() == sfview.KindLink },
		func(el sfview.Element) bool {
			switch el.Kind() {
			case sfview.KindGroup, sfview.KindFlow, sfview.KindLink:
				return false
			}
			return true
		},
	}
	piped := make(map[int]bool)
	for i, pass := range passes {
		for _, el := range els {
			if !pass(el) {
				continue
			}
			if err := rd.drawElement(buf, el, i == 1); err != nil {
				log.Warn(ctx, "skipping element", slog.F("uid", el.GetUID()), slog.F("kind", el.Kind().String()), slog.Error(err))
				continue
			}
			if el.Kind() == sfview.KindFlow {
				piped[el.GetUID()] = true
			}
		}
	}
	// valves go over the shapes so pipes never hide them
	for _, el := range els {
		if f, ok := el.(sfview.Flow); ok && piped[f.UID] {
			if err := rd.drawElement(buf, f, false); err != nil {
				log.Warn(ctx, "skipping valve", slog.F("uid", f.UID), slog.Error(err))
			}
		}
	}

	if opts.SelectRect != nil {
		sr := *opts.SelectRect
		fmt.Fprintf(buf, `<rect class="sf-marquee" x="%v" y="%v" width="%v" height="%v" fill="%s" stroke="%s" />`,
			sr.Left, sr.Top, sr.Width(), sr.Height(), color.Marquee, color.Selection)
	}
	fmt.Fprint(buf, `</svg>`)
	return buf.Bytes(), nil
}

// drawElement renders el into a scratch buffer first so a failing element
// leaves nothing behind.
func (rd *renderer) drawElement(w io.Writer, el sfview.Element, pipe bool) error {
	buf := &bytes.Buffer{}
	var err error
	switch el := el.(type) {
	case sfview.Stock:
		err = rd.drawStock(buf, el)
	case sfview.Flow:
		if pipe {
			err = rd.drawPipe(buf, el)
		} else {
			err = rd.drawValve(buf, el)
		}
	case sfview.Aux:
		err = rd.drawAux(buf, el)
	case sfview.Cloud:
		err = rd.drawCloud(buf, el)
	case sfview.Link:
		err = rd.drawLink(buf, el)
	case sfview.Module:
		err = rd.drawModule(buf, el)
	case sfview.Alias:
		err = rd.drawAlias(buf, el)
	case sfview.Group:
		err = rd.drawGroup(buf, el)
	default:
		err = fmt.Errorf("unknown element %T", el)
	}
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

func (rd *renderer) stroke(uid int) string {
	switch {
	case rd.opts.Target != nil && *rd.opts.Target == uid:
		return color.Highlight
	case rd.selected[uid]:
		return color.Selection
	case uid < 0:
		return color.Ghost
	}
	return color.Stroke
}

func (rd *renderer) fill(uid int) (string, error) {
	if rd.selected[uid] {
		return color.Adjust(color.Selection, .35)
	}
	return color.Fill, nil
}

func strokeWidth(selected bool) float64 {
	if selected {
		return 2
	}
	return 1
}

func (rd *renderer) drawStock(w io.Writer, s sfview.Stock) error {
	if s.IsZeroRadius {
		return nil
	}
	fill, err := rd.fill(s.UID)
	if err != nil {
		return err
	}
	box := geo.RectAround(s.X, s.Y, sfshape.StockWidth/2, sfshape.StockHeight/2)
	fmt.Fprintf(w, `<rect class="sf-stock" x="%v" y="%v" width="%v" height="%v" fill="%s" stroke="%s" stroke-width="%v" />`,
		box.Left, box.Top, box.Width(), box.Height(), fill, rd.stroke(s.UID), strokeWidth(rd.selected[s.UID]))
	rd.drawSpark(w, s.Name, box.Pad(-box.Height()*(1-SPARK_INSET)/2))
	return rd.drawLabel(w, s)
}

func (rd *renderer) drawAux(w io.Writer, a sfview.Aux) error {
	if a.IsZeroRadius {
		return nil
	}
	fill, err := rd.fill(a.UID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, `<circle class="sf-aux" cx="%v" cy="%v" r="%v" fill="%s" stroke="%s" stroke-width="%v" />`,
		a.X, a.Y, sfshape.AuxRadius, fill, rd.stroke(a.UID), strokeWidth(rd.selected[a.UID]))
	half := sfshape.AuxRadius * SPARK_INSET
	rd.drawSpark(w, a.Name, geo.RectAround(a.X, a.Y, half, half))
	return rd.drawLabel(w, a)
}

func (rd *renderer) drawModule(w io.Writer, m sfview.Module) error {
	if m.IsZeroRadius {
		return nil
	}
	fill, err := rd.fill(m.UID)
	if err != nil {
		return err
	}
	box := geo.RectAround(m.X, m.Y, sfshape.ModuleWidth/2, sfshape.ModuleHeight/2)
	fmt.Fprintf(w, `<rect class="sf-module" x="%v" y="%v" width="%v" height="%v" rx="%v" fill="%s" stroke="%s" stroke-width="%v" />`,
		box.Left, box.Top, box.Width(), box.Height(), MODULE_RADIUS, fill, rd.stroke(m.UID), strokeWidth(rd.selected[m.UID]))
	return rd.drawLabel(w, m)
}

func (rd *renderer) drawAlias(w io.Writer, a sfview.Alias) error {
	if a.IsZeroRadius {
		return nil
	}
	if _, ok := rd.r.Get(a.AliasOfUID); !ok {
		return fmt.Errorf("alias of missing uid %d: %w", a.AliasOfUID, sfview.ErrNotFound)
	}
	fill, err := rd.fill(a.UID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, `<circle class="sf-alias sf-ghost" cx="%v" cy="%v" r="%v" fill="%s" stroke="%s" stroke-width="%v" />`,
		a.X, a.Y, sfshape.AuxRadius, fill, rd.stroke(a.UID), strokeWidth(rd.selected[a.UID]))
	return rd.drawLabel(w, a)
}

func (rd *renderer) drawGroup(w io.Writer, g sfview.Group) error {
	box := geo.RectAround(g.X, g.Y, g.Width/2, g.Height/2)
	fmt.Fprintf(w, `<rect class="sf-group" x="%v" y="%v" width="%v" height="%v" rx="%v" fill="%s" stroke="%s" stroke-width="%v" />`,
		box.Left, box.Top, box.Width(), box.Height(), MODULE_RADIUS, color.Group, rd.stroke(g.UID), strokeWidth(rd.selected[g.UID]))
	if g.Name != "" {
		fmt.Fprintf(w, `<text class="sf-label" x="%v" y="%v" fill="%s">%s</text>`,
			box.Left+label.PADDING*2, box.Top+label.LineHeight, color.Label, svg.EscapeText(g.Name))
	}
	return nil
}

// drawCloud draws four bumps around the center.
func (rd *renderer) drawCloud(w io.Writer, c sfview.Cloud) error {
	if c.IsZeroRadius {
		return nil
	}
	if _, ok := rd.r.Get(c.FlowUID); !ok {
		return fmt.Errorf("cloud of missing flow %d: %w", c.FlowUID, sfview.ErrNotFound)
	}
	r := sfshape.CloudRadius
	bump := r / 2
	pc := svg.NewPathContext()
	pts := []geo.Point{
		geo.NewPoint(c.X-r, c.Y+bump/2),
		geo.NewPoint(c.X-bump, c.Y-bump),
		geo.NewPoint(c.X+bump, c.Y-bump),
		geo.NewPoint(c.X+r, c.Y+bump/2),
	}
	pc.StartAt(pts[0])
	for _, p := range pts[1:] {
		pc.A(bump, false, true, p)
	}
	pc.A(r, false, true, pts[0])
	pc.Z()
	fill, err := rd.fill(c.UID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, `<path class="sf-cloud" d="%s" fill="%s" stroke="%s" stroke-width="%v" />`,
		pc.PathData(), fill, rd.stroke(c.UID), strokeWidth(rd.selected[c.UID]))
	return nil
}

func (rd *renderer) drawPipe(w io.Writer, f sfview.Flow) error {
	pts, err := sfflow.PipeRoute(rd.r, f)
	if err != nil {
		return err
	}
	n := len(pts)
	end, prev := pts[n-1], pts[n-2]
	θ := prev.AngleTo(end)
	// stop the pipe where the arrowhead starts
	body := append([]geo.Point(nil), pts...)
	if end.Sub(prev).Length() > ARROWHEAD_LENGTH {
		body[n-1] = end.Sub(geo.NewPoint(math.Cos(θ), math.Sin(θ)).Scale(ARROWHEAD_LENGTH))
	}
	pc := svg.NewPathContext()
	pc.Polyline(body)
	stroke := rd.stroke(f.UID)
	fmt.Fprintf(w, `<path class="sf-pipe-outline" d="%s" stroke="%s" stroke-width="%v" />`, pc.PathData(), stroke, PIPE_WIDTH)
	fmt.Fprintf(w, `<path class="sf-pipe" d="%s" stroke="%s" stroke-width="%v" />`, pc.PathData(), color.Fill, PIPE_WIDTH-2)
	rd.drawArrowhead(w, end, θ, ARROWHEAD_LENGTH+2, ARROWHEAD_WIDTH+4, stroke)
	return nil
}

func (rd *renderer) drawValve(w io.Writer, f sfview.Flow) error {
	if f.IsZeroRadius {
		return nil
	}
	if err := sfview.ValidateFlow(rd.r, f); err != nil {
		return err
	}
	fill, err := rd.fill(f.UID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, `<circle class="sf-valve" cx="%v" cy="%v" r="%v" fill="%s" stroke="%s" stroke-width="%v" />`,
		f.X, f.Y, sfshape.ValveRadius, fill, rd.stroke(f.UID), strokeWidth(rd.selected[f.UID]))
	half := sfshape.ValveRadius * SPARK_INSET
	rd.drawSpark(w, f.Name, geo.RectAround(f.X, f.Y, half, half))
	return rd.drawLabel(w, f)
}

func (rd *renderer) drawLink(w io.Writer, l sfview.Link) error {
	from, err := sfview.Lookup(rd.r, l.FromUID)
	if err != nil {
		return err
	}
	to, err := sfview.Lookup(rd.r, l.ToUID)
	if err != nil {
		return err
	}
	g := sflink.Compute(l, from, to, nil)
	stroke := rd.stroke(l.UID)
	class := "sf-link"
	if l.UID < 0 || to.ZeroRadius() {
		class += " sf-ghost"
	}
	fmt.Fprintf(w, `<path class="%s" d="%s" stroke="%s" stroke-width="%v" />`,
		class, g.PathData(), stroke, strokeWidth(rd.selected[l.UID]))
	rd.drawArrowhead(w, g.End, g.ArrowAngle, ARROWHEAD_LENGTH, ARROWHEAD_WIDTH, stroke)
	return nil
}

func (rd *renderer) drawArrowhead(w io.Writer, tip geo.Point, θ, length, width float64, fill string) {
	pts := sflink.Arrowhead(tip, θ, length, width)
	pc := svg.NewPathContext()
	pc.StartAt(pts[0])
	pc.L(pts[1])
	pc.L(pts[2])
	pc.Z()
	fmt.Fprintf(w, `<path class="sf-arrowhead" d="%s" fill="%s" />`, pc.PathData(), fill)
}

func (rd *renderer) drawLabel(w io.Writer, el sfview.Element) error {
	named, ok := el.(sfview.Named)
	if !ok || named.GetName() == "" {
		return nil
	}
	s, ok := sfshape.Of(el)
	if !ok {
		return fmt.Errorf("%v %d has no shape", el.Kind(), el.GetUID())
	}
	rw, rh := s.HalfExtents()
	c := el.GetCenter()
	a := label.Layout(c.X, c.Y, rw, rh, named.GetLabelSide(), named.GetName())
	fmt.Fprintf(w, `<text class="sf-label" x="%v" y="%v" text-anchor="%s" fill="%s">%s</text>`,
		a.X, a.Baselines[0], a.Align, color.Label, svg.RenderText(named.GetName(), a.X, label.LineHeight))
	return nil
}

// drawSpark fits a series into box. Series with fewer than two points or no
// range are skipped.
func (rd *renderer) drawSpark(w io.Writer, name string, box geo.Rect) {
	series := rd.opts.Series[name]
	if len(series) < 2 {
		return
	}
	lo, hi := series[0], series[0]
	for _, v := range series {
		lo = go2.Min(lo, v)
		hi = go2.Max(hi, v)
	}
	span := hi - lo
	pts := make([]geo.Point, len(series))
	for i, v := range series {
		y := .5
		if !geo.IsZero(span) {
			y = (v - lo) / span
		}
		pts[i] = geo.NewPoint(
			box.Left+box.Width()*float64(i)/float64(len(series)-1),
			box.Bottom-box.Height()*y,
		)
	}
	pc := svg.NewPathContext()
	pc.Polyline(pts)
	fmt.Fprintf(w, `<path class="sf-spark" d="%s" stroke="%s" />`, pc.PathData(), color.Spark)
}
