package typesys

import "encoding/json"

type wireT struct {
	Kind           Kind        `json:"kind"`
	Of             *wireT      `json:"of,omitempty"`
	ChannelKind    ChannelKind `json:"channelKind,omitempty"`
	Key            *wireT      `json:"key,omitempty"`
	Value          *wireT      `json:"value,omitempty"`
	Name           string      `json:"name,omitempty"`
	Params         []wireT     `json:"params,omitempty"`
	Returns        *wireT      `json:"returns,omitempty"`
	OptionalParams []bool      `json:"optionalParams,omitempty"`
}

func toWire(t T) wireT {
	w := wireT{Kind: t.Kind, ChannelKind: t.ChannelKind, Name: t.Name, OptionalParams: t.OptionalParams}
	if t.Of != nil {
		ow := toWire(*t.Of)
		w.Of = &ow
	}
	if t.Key != nil {
		kw := toWire(*t.Key)
		w.Key = &kw
	}
	if t.Value != nil {
		vw := toWire(*t.Value)
		w.Value = &vw
	}
	if t.Returns != nil {
		rw := toWire(*t.Returns)
		w.Returns = &rw
	}
	if t.Params != nil {
		w.Params = make([]wireT, len(t.Params))
		for i, p := range t.Params {
			w.Params[i] = toWire(p)
		}
	}
	return w
}

func fromWire(w wireT) T {
	t := T{Kind: w.Kind, ChannelKind: w.ChannelKind, Name: w.Name, OptionalParams: w.OptionalParams}
	if w.Of != nil {
		of := fromWire(*w.Of)
		t.Of = &of
	}
	if w.Key != nil {
		k := fromWire(*w.Key)
		t.Key = &k
	}
	if w.Value != nil {
		v := fromWire(*w.Value)
		t.Value = &v
	}
	if w.Returns != nil {
		r := fromWire(*w.Returns)
		t.Returns = &r
	}
	if w.Params != nil {
		t.Params = make([]T, len(w.Params))
		for i, p := range w.Params {
			t.Params[i] = fromWire(p)
		}
	}
	return t
}

func (t T) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(t))
}

func (t *T) UnmarshalJSON(data []byte) error {
	var w wireT
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = fromWire(w)
	return nil
}
