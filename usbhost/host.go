// Package usbhost attaches real HID devices to the bridge. A backend watches
// for devices, hands their report descriptors to the Events sink on arrival,
// and streams every input report until the device goes away.
package usbhost

// Events is the consumer side of a backend. Implemented by hid.Dispatcher.
type Events interface {
	// Mount is called once per attached device with its raw report
	// descriptor (possibly empty for boot-protocol-only transports).
	Mount(addr uint8, desc []byte) error
	// Unmount is called when the device at addr detaches.
	Unmount(addr uint8)
	// HandleReport delivers one raw input report. The backend requests the
	// next report only after this returns.
	HandleReport(addr uint8, report []byte)
}

// Host is a running device backend.
type Host interface {
	// ListenAndServe blocks, delivering events until Close is called or a
	// fatal backend error occurs.
	ListenAndServe() error
	Close() error
}
