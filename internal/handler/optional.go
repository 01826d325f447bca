package handler

import "encoding/json"

// optional records whether a JSON field was present and whether it was null,
// which PATCH bodies need to tell "leave alone" apart from "clear".
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Null reports whether the field was sent as an explicit null
func (o optional[T]) Null() bool {
	return o.Set && o.Value == nil
}
