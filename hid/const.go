package hid

// Usage pages and usages the dispatcher cares about.
const (
	UsagePageGenericDesktop = 0x01
	UsagePageKeyboard       = 0x07
	UsagePageLED            = 0x08
	UsagePageButton         = 0x09

	UsageMouse    = 0x02
	UsageKeyboard = 0x06
	UsageX        = 0x30
	UsageY        = 0x31
	UsageWheel    = 0x38
)

// Item header fields, decoded with explicit shifts and masks. Short items
// are one header byte (tag:4, type:2, size:2) followed by 0/1/2/4 payload
// bytes; a size field of 3 means 4 bytes.
const (
	itemTypeMain   = 0
	itemTypeGlobal = 1
	itemTypeLocal  = 2

	// Main item tags
	tagInput         = 8
	tagOutput        = 9
	tagCollection    = 10
	tagFeature       = 11
	tagEndCollection = 12

	// Global item tags
	tagUsagePage    = 0
	tagLogicalMin   = 1
	tagLogicalMax   = 2
	tagReportSize   = 7
	tagReportID     = 8
	tagReportCount  = 9

	// Local item tags
	tagUsage    = 0
	tagUsageMin = 1
	tagUsageMax = 2

	// longItemPrefix introduces a long item (tag 0xF, type 3, size 2).
	longItemPrefix = 0xFE
)

// Report-length windows used by the dispatcher to classify reports that are
// not resolved through parsed field descriptors.
const (
	bootKeyboardReportLen = 8
	nkroReportMinLen      = 13
	nkroReportMaxLen      = 30
	bootMouseReportMinLen = 6
	bootMouseReportMaxLen = 8
)

// MaxInstances bounds the number of concurrently mounted HID devices.
const MaxInstances = 8
