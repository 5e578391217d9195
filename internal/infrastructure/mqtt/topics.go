package mqtt

import "strings"

// DefaultTopicPrefix matches the default base topic of openHAB's MQTT event
// bus.
const DefaultTopicPrefix = "openhab"

// Topics builds the topics the bridge publishes to.
//
//	topics := mqtt.NewTopics("openhab")
//	topics.ItemCommand("LivingRoom_Light")
//	// Returns: "openhab/LivingRoom_Light/command"
type Topics struct {
	prefix string
}

// NewTopics returns a Topics for prefix. Surrounding slashes are trimmed and
// an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the base topic.
func (t Topics) Prefix() string {
	return t.prefix
}

// ItemCommand returns the topic openHAB reads commands for an item from.
//
// Example: openhab/LivingRoom_Light/command
func (t Topics) ItemCommand(itemName string) string {
	return t.prefix + "/" + itemName + "/command"
}

// BridgeStatus returns the retained online/offline status topic.
//
// Example: openhab/ghome-bridge/status
func (t Topics) BridgeStatus() string {
	return t.prefix + "/ghome-bridge/status"
}
