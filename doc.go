/*
Package xwrap is a small, ownership-checked layer over XGB, the X Go Binding.

Every Display, Window and CreatedColormap knows whether it owns the
underlying server resource. Owned resources are released exactly once
(Close, Destroy, Free); borrowed ones, such as the root window and the
default colormap, cannot be released at all. Calls on a closed display or a
destroyed window return an error instead of reaching the server.

Errors

Requests that create resources are checked: a protocol error comes back
from the call as an *ErrorEvent. Other requests are sent without waiting
for the server. Their protocol errors are stored in a single slot per
display while events are read; the first one is kept and later ones are
logged and dropped. CheckError syncs with the server and empties the slot.

	w.Map()
	if ev := d.CheckError(); ev != nil {
		log.Printf("map failed: %s", ev.Text())
	}

Example

This opens the default display, creates a window that listens to
structure and key events, maps it, and prints every event received.

	package main

	import (
		"log"

		"github.com/BurntSushi/xwrap"
	)

	func main() {
		d, err := xwrap.Open("")
		if err != nil {
			log.Fatal(err)
		}
		defer d.Close()

		b, err := d.DefaultScreen().NewDefaultWindowBuilder()
		if err != nil {
			log.Fatal(err)
		}
		b.SetSize(500, 500).Attributes().
			SetEventMask(xwrap.StructureNotifyMask | xwrap.KeyPressMask)
		w, err := b.Build()
		if err != nil {
			log.Fatal(err)
		}
		w.Map()

		for {
			ev, err := d.NextEvent()
			if err != nil {
				log.Fatal(err)
			}
			log.Printf("Event: %s", ev)
		}
	}

Window manager conventions live in the subpackages protocol, icccm and
ewmh. They use xgbutil on the display's connection, see Display.XUtil.

Concurrency

A Display may be used from several goroutines when opened with
WithSerializedCalls: every call then takes a per-display lock. NextEvent
does not hold it while waiting for an event.
*/
package xwrap
