package sfview

import (
	"encoding/json"
	"fmt"
)

type viewJSON struct {
	Elements []json.RawMessage `json:"elements"`
	NextUID  int               `json:"nextUid"`
}

type typeJSON struct {
	Type string `json:"type"`
}

func (v *View) MarshalJSON() ([]byte, error) {
	vj := viewJSON{
		Elements: make([]json.RawMessage, 0, v.Len()),
		NextUID:  v.nextUID,
	}
	for _, el := range v.Elements() {
		b, err := MarshalElement(el)
		if err != nil {
			return nil, err
		}
		vj.Elements = append(vj.Elements, b)
	}
	return json.Marshal(vj)
}

func (v *View) UnmarshalJSON(b []byte) error {
	var vj viewJSON
	if err := json.Unmarshal(b, &vj); err != nil {
		return err
	}
	*v = *New()
	for i, raw := range vj.Elements {
		el, err := UnmarshalElement(raw)
		if err != nil {
			return fmt.Errorf("elements[%d]: %w", i, err)
		}
		v.Put(el)
	}
	if vj.NextUID > v.nextUID {
		v.nextUID = vj.NextUID
	}
	return nil
}

// MarshalElement encodes el with a "type" discriminator.
func MarshalElement(el Element) ([]byte, error) {
	switch el := el.(type) {
	case Stock:
		return json.Marshal(struct {
			Type string `json:"type"`
			Stock
		}{"stock", el})
	case Flow:
		return json.Marshal(struct {
			Type string `json:"type"`
			Flow
		}{"flow", el})
	case Aux:
		return json.Marshal(struct {
			Type string `json:"type"`
			Aux
		}{"aux", el})
	case Cloud:
		return json.Marshal(struct {
			Type string `json:"type"`
			Cloud
		}{"cloud", el})
	case Link:
		return json.Marshal(struct {
			Type string `json:"type"`
			Link
		}{"link", el})
	case Module:
		return json.Marshal(struct {
			Type string `json:"type"`
			Module
		}{"module", el})
	case Alias:
		return json.Marshal(struct {
			Type string `json:"type"`
			Alias
		}{"alias", el})
	case Group:
		return json.Marshal(struct {
			Type string `json:"type"`
			Group
		}{"group", el})
	}
	return nil, fmt.Errorf("unknown element %T", el)
}

func UnmarshalElement(b []byte) (Element, error) {
	var t typeJSON
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	switch t.Type {
	case "stock":
		var el Stock
		err := json.Unmarshal(b, &el)
		return el, err
	case "flow":
		var el Flow
		err := json.Unmarshal(b, &el)
		return el, err
	case "aux":
		var el Aux
		err := json.Unmarshal(b, &el)
		return el, err
	case "cloud":
		var el Cloud
		err := json.Unmarshal(b, &el)
		return el, err
	case "link":
		var el Link
		err := json.Unmarshal(b, &el)
		return el, err
	case "module":
		var el Module
		err := json.Unmarshal(b, &el)
		return el, err
	case "alias":
		var el Alias
		err := json.Unmarshal(b, &el)
		return el, err
	case "group":
		var el Group
		err := json.Unmarshal(b, &el)
		return el, err
	}
	return nil, fmt.Errorf("unknown element type %q", t.Type)
}
