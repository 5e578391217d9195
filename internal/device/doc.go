// Package device translates openHAB items into Google smart-home devices.
//
// It is the translation engine of openhab-ghome: the rules that decide, for
// an arbitrary tagged item graph, which devices exist, which traits they
// expose, how their state is assembled from one or more items and how an
// inbound command is decomposed into an item write.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│                          Translation Engine                          │
//	│                                                                      │
//	│  ┌────────────────┐   ┌────────────────┐   ┌──────────────────────┐  │
//	│  │   Classifier   │◀──│      Sync      │   │       Command        │  │
//	│  │ (classifier.go)│   │   (sync.go)    │   │    (command.go)      │  │
//	│  │ item → traits  │   │ items → devices│   │ command → item write │  │
//	│  └────────────────┘   └────────────────┘   └──────────────────────┘  │
//	│          ▲                                           │               │
//	│          │            ┌────────────────┐             │               │
//	│          └────────────│     State      │─────────────┘               │
//	│                       │   (state.go)   │  thermostat roles           │
//	│                       │ item → State   │  (thermostat.go)            │
//	│                       └────────────────┘                             │
//	└──────────────────────────────────────────────────────────────────────┘
//
// # Usage
//
//	devices := device.BuildDevices(items)
//
//	state, err := device.TranslateState(it)
//
//	inst, err := device.TranslateCommand(id, exec, lookup)
//	if !inst.Unsupported {
//	    writer.SendCommand(ctx, token, inst.ItemName, inst.Value)
//	}
//
// # Thread Safety
//
// Every function in this package is pure. Nothing is cached and no input is
// retained, so callers may translate independent items concurrently.
package device
