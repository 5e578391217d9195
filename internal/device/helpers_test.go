package device

import (
	"encoding/json"
)

// describe renders a state as JSON so pointer fields are readable in failures.
func describe(s State) string {
	b, err := json.Marshal(s)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
