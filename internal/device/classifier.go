package device

import "github.com/nerrad567/openhab-ghome/internal/item"

// typeTraits maps item types to the traits they support, in match order.
var typeTraits = []struct {
	itemType string
	traits   []Trait
}{
	{item.TypeSwitch, []Trait{TraitOnOff}},
	{item.TypeDimmer, []Trait{TraitBrightness, TraitOnOff}},
	{item.TypeColor, []Trait{TraitBrightness, TraitOnOff, TraitColorSpectrum}},
	{item.TypeRollershutter, []Trait{TraitOpenClose}},
}

// ClassifyTraits returns the traits supported by an item, derived from its
// type (or group type) and, for temperature items, its tags.
//
// An empty result means the item cannot be represented and must be skipped.
// The returned slice is freshly allocated.
func ClassifyTraits(it item.Item) []Trait {
	for _, tt := range typeTraits {
		if it.IsType(tt.itemType) {
			return append([]Trait(nil), tt.traits...)
		}
	}
	if isTemperatureItem(it) {
		return []Trait{TraitTemperatureSetting}
	}
	return nil
}

// isTemperatureItem reports whether the item is a standalone temperature
// sensor or a thermostat group.
func isTemperatureItem(it item.Item) bool {
	return it.HasTag(item.TagCurrentTemperature) || isThermostatGroup(it)
}

func isThermostatGroup(it item.Item) bool {
	return it.IsGroup() && it.HasTag(item.TagThermostat)
}
