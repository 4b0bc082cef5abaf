package models

import (
	"encoding/json"
	"strconv"
)

// OptionalID is a nullable id field of a partial update. Set is false when the key was absent;
// a JSON null sets it with a nil Value, which clears the link.
type OptionalID struct {
	Set   bool
	Value *int64
}

// SetID returns an OptionalID that links to id.
func SetID(id int64) OptionalID {
	return OptionalID{Set: true, Value: &id}
}

// ClearID returns an OptionalID that removes the link.
func ClearID() OptionalID {
	return OptionalID{Set: true}
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// MarshalJSON writes the id or null. An unset value also writes null, so callers that build
// request bodies for a partial update should use a map when the key must be left out.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(*o.Value, 10)), nil
}
