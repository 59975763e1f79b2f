package scenefile

import (
	"encoding/xml"
	"strconv"

	"agent-compositor/internal/scene"
)

// State is one named scene built from a states file.
type State struct {
	Name  string
	Scene *scene.Scene
}

// File matches the states file schema:
//
//	<States>
//	  <State Name="intro">
//	    <Object Id="0"/>
//	    <Object Id="1" Parent="0" Y="10" X="20" Depth="1" Image="cat"/>
//	  </State>
//	</States>
type File struct {
	XMLName xml.Name   `xml:"States"`
	States  []StateDoc `xml:"State"`
}

// StateDoc is the serialized form of one scene.
type StateDoc struct {
	Name    string      `xml:"Name,attr,omitempty"`
	Objects []ObjectDoc `xml:"Object"`
}

// ObjectDoc is the serialized form of one object.
type ObjectDoc struct {
	ID     int    `xml:"Id,attr"`
	Parent string `xml:"Parent,attr,omitempty"` // empty for roots
	Y      int    `xml:"Y,attr"`
	X      int    `xml:"X,attr"`
	Depth  int32  `xml:"Depth,attr"`
	Image  string `xml:"Image,attr,omitempty"`
}

// ParentOf formats a parent id for ObjectDoc.Parent.
func ParentOf(id int) string {
	if id == scene.Root {
		return ""
	}
	return strconv.Itoa(id)
}
