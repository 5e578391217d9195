// Package item models openHAB items as returned by the REST API.
//
// Items are the addressable units of state in openHAB: switches, dimmers,
// sensors and groups of such units. Each item carries a raw string state and
// a set of semantic tags that drive device discovery.
//
// Items are read-only input. Nothing in this package performs I/O; decoding
// from the REST payload is done by the openhab package.
//
// # Usage
//
//	var it item.Item
//	if err := json.Unmarshal(body, &it); err != nil {
//	    return err
//	}
//	if it.IsType(item.TypeDimmer) && it.HasTag(item.TagLighting) {
//	    level, err := item.ParseNumber(it.State)
//	    ...
//	}
package item
