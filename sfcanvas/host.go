// Package sfcanvas is the interactive controller for a stock and flow
// diagram. It turns pointer, wheel and key events into selection changes,
// live drag previews and host callbacks, delegating geometry to sfflow and
// sflink.
package sfcanvas

import (
	"fmt"

	"oss.terrastruct.com/stockflow/lib/geo"
	"oss.terrastruct.com/stockflow/lib/label"
	"oss.terrastruct.com/stockflow/sfview"
)

// Host owns the model. The canvas never edits the view itself; it previews
// drags in an overlay and reports commits through these callbacks.
type Host interface {
	SetSelection(uids []int)
	// MoveSelection commits a drag of the current selection. arcPoint is set
	// when a single link was bent and segmentIndex when a single flow segment
	// was dragged.
	MoveSelection(delta geo.Point, arcPoint *geo.Point, segmentIndex *int)
	// MoveFlow commits a flow whose end was dragged. flow carries the
	// previewed geometry. targetUID is the stock the end snapped to, or 0 for
	// none, in which case fauxCenter is where a cloud should go.
	MoveFlow(flow sfview.Flow, targetUID int, delta geo.Point, fauxCenter *geo.Point, wasInCreation, isSourceAttach bool)
	MoveLabel(uid int, side label.Side)
	AttachLink(link sfview.Link, newTargetUID int)
	CreateVariable(el sfview.Element)
	RenameVariable(oldName, newName string)
	DeleteSelection()
	ClearSelectedTool()
	ShowVariableDetails()
	ViewBoxChange(viewBox geo.Rect, zoom float64)
}

type Tool int

const (
	ToolNone Tool = iota
	ToolStock
	ToolFlow
	ToolAux
	ToolLink
)

func (t Tool) String() string {
	switch t {
	case ToolStock:
		return "stock"
	case ToolFlow:
		return "flow"
	case ToolAux:
		return "aux"
	case ToolLink:
		return "link"
	}
	return "none"
}

func ToolFromString(s string) (Tool, error) {
	switch s {
	case "", "none":
		return ToolNone, nil
	case "stock":
		return ToolStock, nil
	case "flow":
		return ToolFlow, nil
	case "aux":
		return ToolAux, nil
	case "link":
		return ToolLink, nil
	}
	return ToolNone, fmt.Errorf("unknown tool %q", s)
}

// Props is what the host feeds the canvas whenever the model changes.
type Props struct {
	View sfview.Reader
	// Version changes whenever View does.
	Version   int
	Selection []int
	Tool      Tool
}
