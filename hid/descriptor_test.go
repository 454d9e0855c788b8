package hid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bootKeyboardDesc is the standard 8-byte boot keyboard layout: 8 modifier
// bits, a reserved byte, a 6-slot key array, plus 5 LED output bits.
var bootKeyboardDesc = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x06, // Usage (Keyboard)
	0xa1, 0x01, // Collection (Application)
	0x05, 0x07, //   Usage Page (Keyboard)
	0x19, 0xe0, //   Usage Minimum (LeftControl)
	0x29, 0xe7, //   Usage Maximum (RightGUI)
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x01, //   Logical Maximum (1)
	0x75, 0x01, //   Report Size (1)
	0x95, 0x08, //   Report Count (8)
	0x81, 0x02, //   Input (Data,Var,Abs)
	0x95, 0x01, //   Report Count (1)
	0x75, 0x08, //   Report Size (8)
	0x81, 0x01, //   Input (Const)
	0x95, 0x05, //   Report Count (5)
	0x75, 0x01, //   Report Size (1)
	0x05, 0x08, //   Usage Page (LEDs)
	0x19, 0x01, //   Usage Minimum (Num Lock)
	0x29, 0x05, //   Usage Maximum (Kana)
	0x91, 0x02, //   Output (Data,Var,Abs)
	0x95, 0x01, //   Report Count (1)
	0x75, 0x03, //   Report Size (3)
	0x91, 0x01, //   Output (Const)
	0x95, 0x06, //   Report Count (6)
	0x75, 0x08, //   Report Size (8)
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x65, //   Logical Maximum (101)
	0x05, 0x07, //   Usage Page (Keyboard)
	0x19, 0x00, //   Usage Minimum (0)
	0x29, 0x65, //   Usage Maximum (101)
	0x81, 0x00, //   Input (Data,Array)
	0xc0, // End Collection
}

// wheelMouseDesc is a three-button wheel mouse with report id 1 and a nested
// physical collection.
var wheelMouseDesc = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x02, // Usage (Mouse)
	0xa1, 0x01, // Collection (Application)
	0x85, 0x01, //   Report ID (1)
	0x09, 0x01, //   Usage (Pointer)
	0xa1, 0x00, //   Collection (Physical)
	0x05, 0x09, //     Usage Page (Button)
	0x19, 0x01, //     Usage Minimum (1)
	0x29, 0x05, //     Usage Maximum (5)
	0x15, 0x00, //     Logical Minimum (0)
	0x25, 0x01, //     Logical Maximum (1)
	0x95, 0x05, //     Report Count (5)
	0x75, 0x01, //     Report Size (1)
	0x81, 0x02, //     Input (Data,Var,Abs)
	0x95, 0x01, //     Report Count (1)
	0x75, 0x03, //     Report Size (3)
	0x81, 0x01, //     Input (Const)
	0x05, 0x01, //     Usage Page (Generic Desktop)
	0x09, 0x30, //     Usage (X)
	0x09, 0x31, //     Usage (Y)
	0x09, 0x38, //     Usage (Wheel)
	0x15, 0x81, //     Logical Minimum (-127)
	0x25, 0x7f, //     Logical Maximum (127)
	0x75, 0x08, //     Report Size (8)
	0x95, 0x03, //     Report Count (3)
	0x81, 0x06, //     Input (Data,Var,Rel)
	0xc0, // End Collection
	0xc0, // End Collection
}

func inputItems(ri *ReportInfo) []ReportItem {
	var out []ReportItem
	for _, it := range ri.Items {
		if it.Kind == KindInput {
			out = append(out, it)
		}
	}
	return out
}

func TestParseBootKeyboard(t *testing.T) {
	reports := Parse(bootKeyboardDesc)
	require.Len(t, reports, 1)

	ri := reports[0]
	assert.Equal(t, uint8(0), ri.ID)
	assert.Equal(t, uint16(UsagePageGenericDesktop), ri.UsagePage)
	assert.Equal(t, uint16(UsageKeyboard), ri.Usage)

	in := inputItems(ri)
	require.Len(t, in, 15) // 8 modifier bits, 1 reserved byte, 6 array slots

	first := in[0]
	assert.Equal(t, uint32(0), first.BitOffset)
	assert.Equal(t, uint8(1), first.BitSize)
	assert.Equal(t, uint16(UsagePageKeyboard), first.UsagePage)
	assert.Equal(t, uint16(0xe0), first.Usage)
	assert.Equal(t, int32(1), first.LogicalMax)

	last := in[7]
	assert.Equal(t, uint32(7), last.BitOffset)
	assert.Equal(t, uint16(0xe7), last.Usage)

	reserved := in[8]
	assert.Equal(t, uint32(8), reserved.BitOffset)
	assert.Equal(t, uint8(8), reserved.BitSize)
	assert.Equal(t, uint16(0), reserved.Usage)

	for n, it := range in[9:] {
		assert.Equal(t, 16+n*8, int(it.BitOffset))
		assert.Equal(t, uint8(8), it.BitSize)
		assert.Equal(t, uint16(n), it.Usage) // usage range assigns min+n
	}

	var outItems []ReportItem
	for _, it := range ri.Items {
		if it.Kind == KindOutput {
			outItems = append(outItems, it)
		}
	}
	require.Len(t, outItems, 8) // 5 LED bits + 3 padding bits
	assert.Equal(t, uint16(UsagePageLED), outItems[0].UsagePage)
	assert.Equal(t, uint16(1), outItems[0].Usage)
	assert.Equal(t, uint32(4), outItems[4].BitOffset)
	assert.Equal(t, uint16(5), outItems[4].Usage)
}

func TestParseWheelMouse(t *testing.T) {
	reports := Parse(wheelMouseDesc)
	require.Len(t, reports, 1)

	ri := reports[0]
	assert.Equal(t, uint8(1), ri.ID)
	assert.Equal(t, uint16(UsagePageGenericDesktop), ri.UsagePage)
	assert.Equal(t, uint16(UsageMouse), ri.Usage)

	in := inputItems(ri)
	require.Len(t, in, 9) // 5 buttons, 1 pad, X, Y, Wheel

	x := in[6]
	assert.Equal(t, uint32(8), x.BitOffset)
	assert.Equal(t, uint16(UsageX), x.Usage)
	assert.Equal(t, int32(-127), x.LogicalMin)

	wheel := in[8]
	assert.Equal(t, uint32(24), wheel.BitOffset)
	assert.Equal(t, uint16(UsageWheel), wheel.Usage)
}

func TestParseMultipleReportIDs(t *testing.T) {
	desc := []byte{
		0x05, 0x0c, // Usage Page (Consumer)
		0x09, 0x01, // Usage (Consumer Control)
		0xa1, 0x01, // Collection (Application)
		0x85, 0x01, //   Report ID (1)
		0x15, 0x00, 0x25, 0x01,
		0x75, 0x01, 0x95, 0x08,
		0x19, 0x00, 0x29, 0x07,
		0x81, 0x02, //   Input: 8 bits
		0x85, 0x02, //   Report ID (2): same collection, fresh report
		0x75, 0x08, 0x95, 0x02,
		0x81, 0x00, //   Input: 2 bytes
		0xc0,
	}

	reports := Parse(desc)
	require.Len(t, reports, 2)

	assert.Equal(t, uint8(1), reports[0].ID)
	assert.Len(t, reports[0].Items, 8)
	assert.Equal(t, uint16(0x0c), reports[1].UsagePage)
	assert.Equal(t, uint16(0x01), reports[1].Usage)
	assert.Equal(t, uint8(2), reports[1].ID)

	// Bit offsets restart in the new report.
	require.Len(t, reports[1].Items, 2)
	assert.Equal(t, uint32(0), reports[1].Items[0].BitOffset)
	assert.Equal(t, uint32(8), reports[1].Items[1].BitOffset)
}

func TestParseTruncated(t *testing.T) {
	// Cut mid-item at every length; must not panic and must return only
	// fields that were fully described.
	for n := 0; n <= len(bootKeyboardDesc); n++ {
		Parse(bootKeyboardDesc[:n])
	}

	reports := Parse(bootKeyboardDesc[:23]) // through the modifier Input item
	require.Len(t, reports, 1)
	assert.Len(t, inputItems(reports[0]), 8)
}

func TestParseSkipsLongItems(t *testing.T) {
	desc := append([]byte{0xfe, 0x02, 0x00, 0xde, 0xad}, bootKeyboardDesc...)
	reports := Parse(desc)
	require.Len(t, reports, 1)
	assert.Len(t, inputItems(reports[0]), 15)
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, Parse(nil))
	assert.Empty(t, Parse([]byte{}))
}

func TestExtract(t *testing.T) {
	type testCase struct {
		name     string
		item     ReportItem
		payload  []byte
		expected int32
	}

	testCases := []testCase{
		{
			name:     "aligned byte",
			item:     ReportItem{BitOffset: 8, BitSize: 8},
			payload:  []byte{0x00, 0x7f},
			expected: 0x7f,
		},
		{
			name:     "single bit",
			item:     ReportItem{BitOffset: 10, BitSize: 1},
			payload:  []byte{0x00, 0x04},
			expected: 1,
		},
		{
			name:     "straddles byte boundary",
			item:     ReportItem{BitOffset: 4, BitSize: 8},
			payload:  []byte{0xab, 0xcd},
			expected: 0xda,
		},
		{
			name:     "sign extended",
			item:     ReportItem{BitOffset: 4, BitSize: 8, LogicalMin: -127},
			payload:  []byte{0xab, 0xcd},
			expected: -38,
		},
		{
			name:     "negative 12 bit field",
			item:     ReportItem{BitOffset: 0, BitSize: 12, LogicalMin: -2047},
			payload:  []byte{0x00, 0x08},
			expected: -2048,
		},
		{
			name:     "unsigned stays unsigned",
			item:     ReportItem{BitOffset: 0, BitSize: 8},
			payload:  []byte{0xff},
			expected: 255,
		},
		{
			name:     "beyond payload reads zero",
			item:     ReportItem{BitOffset: 16, BitSize: 8},
			payload:  []byte{0xff},
			expected: 0,
		},
		{
			name:     "zero size",
			item:     ReportItem{BitOffset: 0, BitSize: 0},
			payload:  []byte{0xff},
			expected: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.item.Extract(tc.payload))
		})
	}
}
