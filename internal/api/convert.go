package api

import (
	"encoding/json"

	"github.com/rickgao/active-strike/internal/model"
)

// Option sides inside obOiData.
const (
	SideCall = "CE"
	SidePut  = "PE"
)

// Price returns the underlying asset price, null when missing or non-numeric.
func (r RawStrikeRecord) Price() model.Value {
	return decodeValue(r.AssetPrice)
}

// Call returns the CE value from the first obOiData element.
func (r RawStrikeRecord) Call() model.Value {
	return r.optionValue(0, SideCall)
}

// Put returns the PE value from the second obOiData element.
func (r RawStrikeRecord) Put() model.Value {
	return r.optionValue(1, SidePut)
}

func (r RawStrikeRecord) optionValue(idx int, side string) model.Value {
	if idx >= len(r.OptionData) || r.OptionData[idx] == nil {
		return model.Value{}
	}
	return decodeValue(r.OptionData[idx][side])
}

// decodeValue converts a raw JSON number (or numeric string) to a Value.
func decodeValue(raw json.RawMessage) model.Value {
	if len(raw) == 0 {
		return model.Value{}
	}
	var v model.Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return model.Value{}
	}
	return v
}
