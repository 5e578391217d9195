package device

import (
	"strings"

	"github.com/nerrad567/openhab-ghome/internal/item"
)

const (
	manufacturer = "openHAB"
	hwVersion    = "1.0"
	swVersion    = "1.0"
	defaultMode  = "heat"
)

// syncContext is the result of the first discovery pass.
type syncContext struct {
	thermostatGroups map[string]struct{}
}

// tagRule resolves one tag of an item to a device type, traits and
// attributes. ok is false when the tag contributes no device for this item.
type tagRule struct {
	tag     string
	resolve func(it item.Item, sc syncContext) (dt DeviceType, traits []Trait, attrs Attributes, ok bool)
}

var tagRules = []tagRule{
	{item.TagLighting, switchableRule(DeviceTypeLight)},
	{item.TagSwitchable, switchableRule(DeviceTypeSwitch)},
	{item.TagOutlet, switchableRule(DeviceTypeOutlet)},
	{item.TagScene, func(item.Item, syncContext) (DeviceType, []Trait, Attributes, bool) {
		return DeviceTypeScene, []Trait{TraitScene}, Attributes{SceneReversible: true}, true
	}},
	{item.TagBlinds, func(item.Item, syncContext) (DeviceType, []Trait, Attributes, bool) {
		return DeviceTypeBlinds, []Trait{TraitOpenClose, TraitStartStop},
			Attributes{OpenDirection: []string{"UP", "DOWN"}}, true
	}},
	{item.TagCurrentTemperature, func(it item.Item, sc syncContext) (DeviceType, []Trait, Attributes, bool) {
		// Sensors inside a thermostat group are reported through the group.
		if it.InGroup(sc.thermostatGroups) {
			return "", nil, Attributes{}, false
		}
		return DeviceTypeThermostat, []Trait{TraitTemperatureSetting}, Attributes{
			ThermostatTemperatureUnit:   temperatureUnit(it),
			QueryOnlyTemperatureSetting: true,
		}, true
	}},
	{item.TagThermostat, func(it item.Item, _ syncContext) (DeviceType, []Trait, Attributes, bool) {
		if !it.IsGroup() {
			return "", nil, Attributes{}, false
		}
		return DeviceTypeThermostat, []Trait{TraitTemperatureSetting}, Attributes{
			ThermostatTemperatureUnit: temperatureUnit(it),
			AvailableThermostatModes:  availableModes(it),
		}, true
	}},
}

func switchableRule(dt DeviceType) func(item.Item, syncContext) (DeviceType, []Trait, Attributes, bool) {
	return func(it item.Item, _ syncContext) (DeviceType, []Trait, Attributes, bool) {
		return dt, ClassifyTraits(it), Attributes{}, true
	}
}

func findRule(tag string) (tagRule, bool) {
	for _, r := range tagRules {
		if r.tag == tag {
			return r, true
		}
	}
	return tagRule{}, false
}

// BuildDevices translates a flat item list into device descriptors.
//
// Every distinct recognised tag of an item may contribute one device, so an
// item tagged both Lighting and Switchable yields two descriptors sharing the
// item name as id. Devices are returned in discovery order: item order first,
// then tag order. Items that resolve to no traits are omitted.
func BuildDevices(items []item.Item) []Device {
	sc := syncContext{thermostatGroups: make(map[string]struct{})}
	for _, it := range items {
		if isThermostatGroup(it) {
			sc.thermostatGroups[it.Name] = struct{}{}
		}
	}

	devices := make([]Device, 0, len(items))
	for _, it := range items {
		seen := make(map[string]struct{}, len(it.Tags))
		for _, tag := range it.Tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}

			rule, ok := findRule(tag)
			if !ok {
				continue
			}
			dt, traits, attrs, ok := rule.resolve(it, sc)
			if !ok || len(traits) == 0 {
				continue
			}
			devices = append(devices, newDevice(it, dt, traits, attrs))
		}
	}
	return devices
}

// DeviceIDs returns the names of the items BuildDevices turns into devices.
func DeviceIDs(items []item.Item) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, d := range BuildDevices(items) {
		ids[d.ID] = struct{}{}
	}
	return ids
}

func newDevice(it item.Item, dt DeviceType, traits []Trait, attrs Attributes) Device {
	return Device{
		ID:     it.Name,
		Type:   dt,
		Traits: traits,
		Name: Name{
			DefaultNames: []string{it.Label},
			Name:         it.Label,
			Nicknames:    []string{it.Label},
		},
		DeviceInfo: DeviceInfo{
			Manufacturer: manufacturer,
			Model:        it.Type,
			HWVersion:    hwVersion,
			SWVersion:    swVersion,
		},
		WillReportState: true,
		Attributes:      attrs,
	}
}

func temperatureUnit(it item.Item) string {
	if isFahrenheit(it) {
		return UnitFahrenheit
	}
	return UnitCelsius
}

func isFahrenheit(it item.Item) bool {
	return it.HasTagFold(item.TagFahrenheit)
}

// availableModes returns the comma-joined state options of the group's mode
// member, or "heat" when there is none.
func availableModes(group item.Item) string {
	roles := resolveRoles(group.Members)
	if roles.mode == nil {
		return defaultMode
	}
	if opts := roles.mode.OptionValues(); len(opts) > 0 {
		return strings.Join(opts, ",")
	}
	return defaultMode
}
