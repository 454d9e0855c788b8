package hid

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/Alia5/HECATE/device"
)

// mouseFields are the resolved field descriptors for a descriptor-driven
// mouse, looked up once per mount.
type mouseFields struct {
	resolved bool
	x        *ReportItem
	y        *ReportItem
	wheel    *ReportItem
	buttons  []ReportItem
}

// instance tracks one mounted HID device: its parsed report layouts and the
// previous-report snapshots used for diffing.
type instance struct {
	addr    uint8
	reports []*ReportInfo

	isKeyboard bool
	isMouse    bool
	hasLED     bool

	prevMods    uint8
	prevKeys    [6]uint8
	prevNKRO    [nkroReportMaxLen]byte
	prevButtons uint8

	fields mouseFields
}

// Dispatcher converts raw input reports into normalized events and feeds
// them to the keyboard and pointer sinks. It is safe for use from the USB
// host context while Mount/Unmount arrive from device lifecycle callbacks.
type Dispatcher struct {
	mu        sync.Mutex
	keys      device.KeySink
	pointer   device.PointerSink
	indicator device.Indicator
	logger    *slog.Logger

	instances [MaxInstances]*instance
}

// NewDispatcher creates a Dispatcher feeding the given sinks. indicator may
// be device.NopIndicator.
func NewDispatcher(keys device.KeySink, pointer device.PointerSink, indicator device.Indicator, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		keys:      keys,
		pointer:   pointer,
		indicator: indicator,
		logger:    logger.With("component", "dispatcher"),
	}
}

// Mount registers a newly attached HID device and parses its report
// descriptor. An empty descriptor is fine: the device is then classified
// per report by the boot-protocol length heuristics.
func (d *Dispatcher) Mount(addr uint8, desc []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	inst := &instance{
		addr:    addr,
		reports: Parse(desc),
	}
	for _, ri := range inst.reports {
		if ri.UsagePage == UsagePageGenericDesktop && ri.Usage == UsageKeyboard {
			inst.isKeyboard = true
		}
		if ri.UsagePage == UsagePageGenericDesktop && ri.Usage == UsageMouse {
			inst.isMouse = true
			resolveMouseFields(inst, ri)
		}
		for _, it := range ri.Items {
			if it.Kind == KindOutput && it.UsagePage == UsagePageLED {
				inst.hasLED = true
			}
		}
	}

	slot := -1
	for i, s := range d.instances {
		if s == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		return fmt.Errorf("hid: instance table full (%d devices)", MaxInstances)
	}
	d.instances[slot] = inst

	d.logger.Info("device mounted", "addr", addr,
		"keyboard", inst.isKeyboard, "mouse", inst.isMouse, "reports", len(inst.reports))
	d.updateConnectedLocked()
	return nil
}

// Unmount clears the instance for addr, including its diff snapshots.
func (d *Dispatcher) Unmount(addr uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.instances {
		if s != nil && s.addr == addr {
			d.instances[i] = nil
			d.logger.Info("device unmounted", "addr", addr)
		}
	}
	d.updateConnectedLocked()
}

func (d *Dispatcher) updateConnectedLocked() {
	var kbd, mouse bool
	for _, s := range d.instances {
		if s == nil {
			continue
		}
		kbd = kbd || s.isKeyboard
		mouse = mouse || s.isMouse
	}
	d.indicator.SetConnected(kbd, mouse)
}

// resolveMouseFields picks the X/Y/Wheel items and up to 5 button bits out
// of a mouse report's input fields.
func resolveMouseFields(inst *instance, ri *ReportInfo) {
	f := &inst.fields
	for i := range ri.Items {
		it := &ri.Items[i]
		if it.Kind != KindInput {
			continue
		}
		switch {
		case it.UsagePage == UsagePageGenericDesktop && it.Usage == UsageX && f.x == nil:
			f.x = it
		case it.UsagePage == UsagePageGenericDesktop && it.Usage == UsageY && f.y == nil:
			f.y = it
		case it.UsagePage == UsagePageGenericDesktop && it.Usage == UsageWheel && f.wheel == nil:
			f.wheel = it
		case it.UsagePage == UsagePageButton && len(f.buttons) < 5:
			f.buttons = append(f.buttons, *it)
		}
	}
	f.resolved = f.x != nil && f.y != nil
}

// HandleReport dispatches one raw input report from the device at addr.
func (d *Dispatcher) HandleReport(addr uint8, report []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var inst *instance
	for _, s := range d.instances {
		if s != nil && s.addr == addr {
			inst = s
			break
		}
	}
	if inst == nil || len(report) == 0 {
		return
	}

	// Resolve the logical report: the sole id-less descriptor applies
	// as-is, otherwise the first byte selects it.
	var info *ReportInfo
	payload := report
	if len(inst.reports) == 1 && inst.reports[0].ID == 0 {
		info = inst.reports[0]
	} else if len(inst.reports) > 0 {
		id := report[0]
		payload = report[1:]
		for _, ri := range inst.reports {
			if ri.ID == id {
				info = ri
				break
			}
		}
	}

	activity := false
	switch {
	case inst.isMouse && inst.fields.resolved &&
		info != nil && info.UsagePage == UsagePageGenericDesktop && info.Usage == UsageMouse:
		activity = d.descriptorMouseLocked(inst, payload)

	case len(payload) == bootKeyboardReportLen && (inst.isKeyboard || info == nil):
		activity = d.bootKeyboardLocked(inst, payload)

	case len(payload) >= nkroReportMinLen && len(payload) <= nkroReportMaxLen &&
		(inst.isKeyboard || info == nil):
		activity = d.nkroLocked(inst, payload)

	case len(payload) >= bootMouseReportMinLen && len(payload) <= bootMouseReportMaxLen:
		activity = d.bootMouseLocked(inst, payload)
	}

	if activity {
		d.indicator.BlinkActivity()
	}
}

func keyInSlots(code uint8, slots []uint8) bool {
	for _, c := range slots {
		if c == code {
			return true
		}
	}
	return false
}

// bootKeyboardLocked diffs a fixed 8-byte boot report: the modifier byte
// bit-by-bit, then the 6-slot key array (releases before presses).
func (d *Dispatcher) bootKeyboardLocked(inst *instance, payload []byte) bool {
	mods := payload[0]
	keys := payload[2:8]
	activity := false

	if changed := mods ^ inst.prevMods; changed != 0 {
		for bit := uint8(0); bit < 8; bit++ {
			if changed&(1<<bit) != 0 {
				d.keys.Key(0xE0+bit, mods&(1<<bit) != 0)
				activity = true
			}
		}
	}

	for _, prev := range inst.prevKeys {
		if prev != 0 && !keyInSlots(prev, keys) {
			d.keys.Key(prev, false)
			activity = true
		}
	}
	for _, code := range keys {
		if code != 0 && !keyInSlots(code, inst.prevKeys[:]) {
			d.keys.Key(code, true)
			activity = true
		}
	}

	inst.prevMods = mods
	copy(inst.prevKeys[:], keys)
	return activity
}

// nkroLocked bit-diffs an NKRO bitmap report; key id = byte*8 + bit.
func (d *Dispatcher) nkroLocked(inst *instance, payload []byte) bool {
	activity := false
	for i, b := range payload {
		diff := b ^ inst.prevNKRO[i]
		if diff == 0 {
			continue
		}
		for bit := uint8(0); bit < 8; bit++ {
			if diff&(1<<bit) != 0 {
				d.keys.Key(uint8(i*8)+bit, b&(1<<bit) != 0)
				activity = true
			}
		}
	}
	copy(inst.prevNKRO[:], payload)
	for i := len(payload); i < len(inst.prevNKRO); i++ {
		inst.prevNKRO[i] = 0
	}
	return activity
}

func clampInt8(v int32) int8 {
	if v > math.MaxInt8 {
		return math.MaxInt8
	}
	if v < math.MinInt8 {
		return math.MinInt8
	}
	return int8(v)
}

// bootMouseLocked handles the fixed boot-protocol mouse layout.
func (d *Dispatcher) bootMouseLocked(inst *instance, payload []byte) bool {
	buttons := payload[0] & 0x1f
	dx := int8(payload[1])
	dy := int8(payload[2])
	var wheel int8
	if len(payload) > 3 {
		wheel = int8(payload[3])
	}

	activity := buttons != inst.prevButtons
	inst.prevButtons = buttons
	d.pointer.Motion(buttons, dx, dy, wheel)
	return activity
}

// descriptorMouseLocked extracts the resolved X/Y/Wheel/button fields.
func (d *Dispatcher) descriptorMouseLocked(inst *instance, payload []byte) bool {
	f := &inst.fields

	var buttons uint8
	for i, it := range f.buttons {
		if it.Extract(payload) != 0 {
			buttons |= 1 << i
		}
	}
	dx := clampInt8(f.x.Extract(payload))
	dy := clampInt8(f.y.Extract(payload))
	var wheel int8
	if f.wheel != nil {
		wheel = clampInt8(f.wheel.Extract(payload))
	}

	activity := buttons != inst.prevButtons
	inst.prevButtons = buttons
	d.pointer.Motion(buttons, dx, dy, wheel)
	return activity
}
