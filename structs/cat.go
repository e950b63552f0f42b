package structs

import (
	jsoniter "github.com/json-iterator/go"
)

// CatID is the opaque identifier thecatapi assigns to an image. The API
// normally sends strings, but numeric ids are accepted as well.
type CatID string

func (id *CatID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := jsoniter.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = CatID(s)
		return nil
	}
	var n jsoniter.Number
	if err := jsoniter.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = CatID(n.String())
	return nil
}

// Cat is one image descriptor returned by the search endpoint. Any other
// field of the response is ignored.
type Cat struct {
	ID  CatID  `json:"id"`
	URL string `json:"url"`
}
