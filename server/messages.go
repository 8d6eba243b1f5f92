package server

import (
	"fmt"

	"github.com/joepstevens0/inf-masterproef/environment"
	"github.com/joepstevens0/inf-masterproef/sim"
	"github.com/joepstevens0/inf-masterproef/tree"
)

// Request types accepted on the websocket.
const (
	MsgGrow         = "grow"
	MsgReset        = "reset"
	MsgRecalculate  = "recalculate"
	MsgPruneID      = "prune_id"
	MsgPruneRule    = "prune_rule"
	MsgSelect       = "select"
	MsgSetParam     = "set_param"
	MsgGetParam     = "get_param"
	MsgMetamer      = "metamer"
	MsgDebugTexture = "debug_texture"
)

// Response types sent back to clients.
const (
	MsgFrame = "frame"
	MsgParam = "param"
	MsgError = "error"
)

// Parameter kinds on the wire.
const (
	ParamGenetic       = "genetic"
	ParamDistribution  = "distribution"
	ParamSpaceDividing = "space_dividing"
	ParamPruneMod      = "prune_mod"
)

// maxGrowCount bounds one grow request so a single client cannot hold the
// simulation for too long.
const maxGrowCount = 200

// Request is a client command. Only the fields of its type are read.
type Request struct {
	Type  string        `json:"type"`
	Count int           `json:"count,omitempty"` // grow; 0 means 1
	ID    uint32        `json:"id,omitempty"`    // prune_id, select, metamer
	Rule  string        `json:"rule,omitempty"`  // prune_rule
	Layer int           `json:"layer,omitempty"` // debug_texture
	Param *ParamMessage `json:"param,omitempty"` // set_param, get_param
}

// ParamMessage is the wire form of a sim.TreeParameter.
type ParamMessage struct {
	Kind  string  `json:"kind"`
	Name  string  `json:"name,omitempty"`  // Genetic parameter name
	Value float64 `json:"value,omitempty"` // Genetic value
	Mode  string  `json:"mode,omitempty"`  // Distribution or space dividing mode
	On    bool    `json:"on,omitempty"`    // Prune mod
}

// Frame is the snapshot broadcast after every state change.
type Frame struct {
	Type      string            `json:"type"`
	Iteration int               `json:"iteration"`
	Selected  uint32            `json:"selected"`
	Branches  []tree.BranchView `json:"branches"`
}

// ParamResponse answers get_param.
type ParamResponse struct {
	Type  string       `json:"type"`
	Param ParamMessage `json:"param"`
}

// MetamerResponse answers metamer.
type MetamerResponse struct {
	Type    string         `json:"type"`
	ID      uint32         `json:"id"`
	Found   bool           `json:"found"`
	Metamer *tree.Snapshot `json:"metamer,omitempty"`
}

// TextureResponse answers debug_texture. Pixels holds RGBA bytes row by row
// and is base64 encoded by encoding/json.
type TextureResponse struct {
	Type   string `json:"type"`
	Layer  int    `json:"layer"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pixels []byte `json:"pixels"`
}

// ErrorResponse reports a rejected request to its sender.
type ErrorResponse struct {
	Type    string `json:"type"`
	Request string `json:"request"`
	Error   string `json:"error"`
}

// toParameter decodes the wire form. Values are ignored for queries.
func (pm ParamMessage) toParameter() (sim.TreeParameter, error) {
	switch pm.Kind {
	case ParamGenetic:
		kind, err := tree.ParseGeneticKind(pm.Name)
		if err != nil {
			return nil, err
		}
		return sim.GeneticParam{GeneticParameter: tree.GeneticParameter{Kind: kind, Value: pm.Value}}, nil
	case ParamDistribution:
		if pm.Mode == "" {
			return sim.DistributionModeParam{}, nil
		}
		mode, err := tree.ParseDistributionMode(pm.Mode)
		if err != nil {
			return nil, err
		}
		return sim.DistributionModeParam{Mode: mode}, nil
	case ParamSpaceDividing:
		if pm.Mode == "" {
			return sim.SpaceDividingModeParam{}, nil
		}
		mode, err := environment.ParseSpaceDividingMode(pm.Mode)
		if err != nil {
			return nil, err
		}
		return sim.SpaceDividingModeParam{Mode: mode}, nil
	case ParamPruneMod:
		return sim.PruneModParam{On: pm.On}, nil
	}
	return nil, fmt.Errorf("unknown parameter kind %q", pm.Kind)
}

func paramMessage(p sim.TreeParameter) ParamMessage {
	switch p := p.(type) {
	case sim.GeneticParam:
		return ParamMessage{Kind: ParamGenetic, Name: p.Kind.String(), Value: p.Value}
	case sim.DistributionModeParam:
		return ParamMessage{Kind: ParamDistribution, Mode: p.Mode.String()}
	case sim.SpaceDividingModeParam:
		return ParamMessage{Kind: ParamSpaceDividing, Mode: p.Mode.String()}
	case sim.PruneModParam:
		return ParamMessage{Kind: ParamPruneMod, On: p.On}
	}
	return ParamMessage{}
}
