package opinion

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// The Opinion API is not consistent about envelope shapes or field names, so
// normalization is driven by per-field candidate key tables instead of fixed
// DTO structs. Each canonical field lists the upstream keys to try in order.

var marketFields = struct {
	ID       []string
	Title    []string
	Category []string
	Price    []string
}{
	ID:       []string{"yesTokenId", "tokenId", "marketId"},
	Title:    []string{"marketTitle", "title", "name"},
	Category: []string{"category", "tag"},
	Price:    []string{"lastPrice", "price"},
}

var historyFields = struct {
	Timestamp []string
	Price     []string
	Volume    []string
}{
	Timestamp: []string{"ts", "time"},
	Price:     []string{"price", "close", "last"},
	Volume:    []string{"volume", "vol"},
}

// rawObject is a decoded upstream JSON object with lazy field extraction.
type rawObject map[string]json.RawMessage

// pickString returns the first candidate key holding a non-empty string.
func (o rawObject) pickString(keys []string) (string, bool) {
	for _, k := range keys {
		raw, ok := o[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s, true
		}
	}
	return "", false
}

// pickFloat returns the first candidate key holding a number, tolerating
// numeric strings.
func (o rawObject) pickFloat(keys []string) (float64, bool) {
	for _, k := range keys {
		raw, ok := o[k]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return f, true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// extractList unwraps the varying Opinion list envelopes: {result:{list:[...]}},
// {data:[...]}, or a bare top-level array.
func extractList(body []byte) []rawObject {
	var envelope struct {
		Result struct {
			List []rawObject `json:"list"`
		} `json:"result"`
		Data []rawObject `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Result.List) > 0 {
			return envelope.Result.List
		}
		if len(envelope.Data) > 0 {
			return envelope.Data
		}
	}

	var list []rawObject
	if err := json.Unmarshal(body, &list); err == nil {
		return list
	}
	return nil
}

// rawLevel decodes an orderbook level sent either as {"price":p,"size":s}
// or as a [price, size] tuple, with numbers possibly encoded as strings.
type rawLevel struct {
	Price float64
	Size  float64
}

func (l *rawLevel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var tuple []json.Number
		if err := json.Unmarshal(data, &tuple); err != nil {
			return err
		}
		if len(tuple) > 0 {
			l.Price, _ = tuple[0].Float64()
		}
		if len(tuple) > 1 {
			l.Size, _ = tuple[1].Float64()
		}
		return nil
	}

	var obj rawObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	l.Price, _ = obj.pickFloat([]string{"price"})
	l.Size, _ = obj.pickFloat([]string{"size"})
	return nil
}
