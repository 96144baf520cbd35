// Package wire serializes bridge modules to canonical CBOR. This is the
// handoff format between a front-end that collects declarations and the
// transformation core, and the input to content hashing for the
// generation cache.
package wire

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/EchidnaHQ/robusta/bridge"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Item kinds on the wire.
const (
	kindStruct  = "struct"
	kindBlock   = "block"
	kindFunc    = "func"
	kindConst   = "const"
	kindMod     = "mod"
	kindImports = "imports"
	kindRaw     = "raw"
)

type wireModule struct {
	Name     string            `cbor:"1,keyasint"`
	Packages map[string]string `cbor:"2,keyasint,omitempty"`
	Items    []wireItem        `cbor:"3,keyasint,omitempty"`
}

// wireItem flattens the Item interface into one tagged record. Only the
// fields for the record's kind are populated.
type wireItem struct {
	Kind      string            `cbor:"1,keyasint"`
	Name      string            `cbor:"2,keyasint,omitempty"`
	Public    bool              `cbor:"3,keyasint,omitempty"`
	EnvParams []string          `cbor:"4,keyasint,omitempty"`
	Fields    []wireField       `cbor:"5,keyasint,omitempty"`
	Methods   []wireMethod      `cbor:"6,keyasint,omitempty"`
	Markers   []bridge.Marker   `cbor:"7,keyasint,omitempty"`
	Items     []wireItem        `cbor:"8,keyasint,omitempty"`
	Paths     []string          `cbor:"9,keyasint,omitempty"`
	Source    string            `cbor:"10,keyasint,omitempty"`
	Type      *bridge.TypeRef   `cbor:"11,keyasint,omitempty"`
	Value     string            `cbor:"12,keyasint,omitempty"`
	Params    []bridge.Param    `cbor:"13,keyasint,omitempty"`
	Span      bridge.Span       `cbor:"14,keyasint,omitempty"`
}

type wireField struct {
	Name string         `cbor:"1,keyasint"`
	Type bridge.TypeRef `cbor:"2,keyasint"`
}

type wireMethod struct {
	Name        string          `cbor:"1,keyasint"`
	Public      bool            `cbor:"2,keyasint,omitempty"`
	Convention  string          `cbor:"3,keyasint,omitempty"`
	CallType    int             `cbor:"4,keyasint,omitempty"`
	HasReceiver bool            `cbor:"5,keyasint,omitempty"`
	RecvByRef   bool            `cbor:"6,keyasint,omitempty"`
	RecvMutable bool            `cbor:"7,keyasint,omitempty"`
	Params      []bridge.Param  `cbor:"8,keyasint,omitempty"`
	Return      *bridge.TypeRef `cbor:"9,keyasint,omitempty"`
	Markers     []bridge.Marker `cbor:"10,keyasint,omitempty"`
	Body        string          `cbor:"11,keyasint,omitempty"`
	Span        bridge.Span     `cbor:"12,keyasint,omitempty"`
}

// Encode serializes a module to canonical CBOR bytes.
func Encode(mod *bridge.Module) ([]byte, error) {
	wm, err := toWire(mod)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(wm)
}

// Decode deserializes a module from CBOR bytes.
func Decode(data []byte) (*bridge.Module, error) {
	var wm wireModule
	if err := cbor.Unmarshal(data, &wm); err != nil {
		return nil, fmt.Errorf("wire: unmarshal module: %w", err)
	}
	return fromWire(&wm)
}

// Hash returns the SHA-256 content hash of a module's canonical encoding.
// Two modules with identical declarations produce the same hash.
func Hash(mod *bridge.Module) ([32]byte, error) {
	data, err := Encode(mod)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

func toWire(mod *bridge.Module) (*wireModule, error) {
	wm := &wireModule{
		Name:     mod.Name,
		Packages: mod.Packages,
	}
	for _, item := range mod.Items {
		wi, err := itemToWire(item)
		if err != nil {
			return nil, err
		}
		wm.Items = append(wm.Items, wi)
	}
	return wm, nil
}

func itemToWire(item bridge.Item) (wireItem, error) {
	switch n := item.(type) {
	case *bridge.StructDecl:
		wi := wireItem{
			Kind:      kindStruct,
			Name:      n.Name,
			Public:    n.Public,
			EnvParams: n.EnvParams,
			Markers:   n.Markers,
			Span:      n.SpanVal,
		}
		for _, f := range n.Fields {
			wi.Fields = append(wi.Fields, wireField{Name: f.Name, Type: f.Type})
		}
		return wi, nil

	case *bridge.MethodBlock:
		wi := wireItem{
			Kind:      kindBlock,
			Name:      n.SelfType,
			EnvParams: n.SelfEnvParams,
			Markers:   n.Markers,
			Span:      n.SpanVal,
		}
		for _, m := range n.Methods {
			wi.Methods = append(wi.Methods, wireMethod{
				Name:        m.Name,
				Public:      m.Public,
				Convention:  m.Convention,
				CallType:    int(m.CallType),
				HasReceiver: m.HasReceiver,
				RecvByRef:   m.RecvByRef,
				RecvMutable: m.RecvMutable,
				Params:      m.Params,
				Return:      m.Return,
				Markers:     m.Markers,
				Body:        m.Body,
				Span:        m.SpanVal,
			})
		}
		return wi, nil

	case *bridge.FuncDecl:
		return wireItem{
			Kind:      kindFunc,
			Name:      n.Name,
			Public:    n.Public,
			EnvParams: n.EnvParams,
			Params:    n.Params,
			Type:      n.Return,
			Markers:   n.Markers,
			Source:    n.Body,
			Span:      n.SpanVal,
		}, nil

	case *bridge.ConstDecl:
		return wireItem{
			Kind:    kindConst,
			Name:    n.Name,
			Type:    n.Type,
			Value:   n.Value,
			Markers: n.Markers,
			Span:    n.SpanVal,
		}, nil

	case *bridge.ModDecl:
		wi := wireItem{
			Kind:    kindMod,
			Name:    n.Name,
			Markers: n.Markers,
			Span:    n.SpanVal,
		}
		for _, inner := range n.Items {
			w, err := itemToWire(inner)
			if err != nil {
				return wireItem{}, err
			}
			wi.Items = append(wi.Items, w)
		}
		return wi, nil

	case *bridge.ImportsDecl:
		return wireItem{Kind: kindImports, Paths: n.Paths, Span: n.SpanVal}, nil

	case *bridge.RawItem:
		return wireItem{Kind: kindRaw, Source: n.Source, Markers: n.Markers, Span: n.SpanVal}, nil

	default:
		return wireItem{}, fmt.Errorf("wire: unencodable item %T", item)
	}
}

func fromWire(wm *wireModule) (*bridge.Module, error) {
	mod := &bridge.Module{
		Name:     wm.Name,
		Packages: wm.Packages,
	}
	for _, wi := range wm.Items {
		item, err := itemFromWire(wi)
		if err != nil {
			return nil, err
		}
		mod.Items = append(mod.Items, item)
	}
	return mod, nil
}

func itemFromWire(wi wireItem) (bridge.Item, error) {
	switch wi.Kind {
	case kindStruct:
		n := &bridge.StructDecl{
			SpanVal:   wi.Span,
			Name:      wi.Name,
			Public:    wi.Public,
			EnvParams: wi.EnvParams,
			Markers:   wi.Markers,
		}
		for _, f := range wi.Fields {
			n.Fields = append(n.Fields, bridge.Field{Name: f.Name, Type: f.Type})
		}
		return n, nil

	case kindBlock:
		n := &bridge.MethodBlock{
			SpanVal:       wi.Span,
			SelfType:      wi.Name,
			SelfEnvParams: wi.EnvParams,
			Markers:       wi.Markers,
		}
		for _, wm := range wi.Methods {
			n.Methods = append(n.Methods, &bridge.Method{
				SpanVal:     wm.Span,
				Name:        wm.Name,
				Public:      wm.Public,
				Convention:  wm.Convention,
				CallType:    bridge.CallType(wm.CallType),
				HasReceiver: wm.HasReceiver,
				RecvByRef:   wm.RecvByRef,
				RecvMutable: wm.RecvMutable,
				Params:      wm.Params,
				Return:      wm.Return,
				Markers:     wm.Markers,
				Body:        wm.Body,
			})
		}
		return n, nil

	case kindFunc:
		return &bridge.FuncDecl{
			SpanVal:   wi.Span,
			Name:      wi.Name,
			Public:    wi.Public,
			EnvParams: wi.EnvParams,
			Params:    wi.Params,
			Return:    wi.Type,
			Markers:   wi.Markers,
			Body:      wi.Source,
		}, nil

	case kindConst:
		return &bridge.ConstDecl{
			SpanVal: wi.Span,
			Name:    wi.Name,
			Type:    wi.Type,
			Value:   wi.Value,
			Markers: wi.Markers,
		}, nil

	case kindMod:
		n := &bridge.ModDecl{
			SpanVal: wi.Span,
			Name:    wi.Name,
			Markers: wi.Markers,
		}
		for _, inner := range wi.Items {
			item, err := itemFromWire(inner)
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, item)
		}
		return n, nil

	case kindImports:
		return &bridge.ImportsDecl{SpanVal: wi.Span, Paths: wi.Paths}, nil

	case kindRaw:
		return &bridge.RawItem{SpanVal: wi.Span, Source: wi.Source, Markers: wi.Markers}, nil

	default:
		return nil, fmt.Errorf("wire: unknown item kind %q", wi.Kind)
	}
}
