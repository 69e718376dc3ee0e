package docstore

import (
	"bytes"
	"encoding/json"
)

// decodeFields decodes a JSON object keeping numbers as json.Number so large
// case numbers survive without float rounding.
func decodeFields(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
