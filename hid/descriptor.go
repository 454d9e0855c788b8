// Package hid parses USB HID report descriptors into field maps and
// dispatches raw input reports as normalized key, button and movement
// events. It handles arbitrary report layouts without per-device code.
package hid

// ItemKind classifies a report field as input, output or feature data.
type ItemKind uint8

const (
	KindInput ItemKind = iota
	KindOutput
	KindFeature
)

// ReportItem describes one field of a report: where it lives, how wide it
// is, and what it means. Bit offsets are relative to the report payload,
// excluding a leading report-id byte.
type ReportItem struct {
	BitOffset  uint32
	BitSize    uint8
	Kind       ItemKind
	UsagePage  uint16
	Usage      uint16
	LogicalMin int32
	LogicalMax int32
}

// ReportInfo is one logical report: a top-level application collection (or
// the id-delimited slice of one) and its ordered field list.
type ReportInfo struct {
	ID        uint8
	UsagePage uint16
	Usage     uint16
	Items     []ReportItem

	bits [3]uint32 // running bit offset per ItemKind
}

// globalState carries the accumulated Global items of the descriptor pass.
type globalState struct {
	usagePage   uint16
	logicalMin  int32
	logicalMax  int32
	reportSize  uint32
	reportCount uint32
	reportID    uint8
}

// localState carries Local items, cleared after every Main item.
type localState struct {
	usages   []uint32 // queued usages, possibly with a page in the high 16 bits
	usageMin uint32
	usageMax uint32
	hasRange bool
}

func (l *localState) clear() {
	l.usages = l.usages[:0]
	l.usageMin = 0
	l.usageMax = 0
	l.hasRange = false
}

// itemValue decodes a little-endian unsigned item payload.
func itemValue(payload []byte) uint32 {
	var v uint32
	for i, b := range payload {
		v |= uint32(b) << (8 * i)
	}
	return v
}

// itemValueSigned decodes a little-endian item payload, sign-extending from
// its encoded width.
func itemValueSigned(payload []byte) int32 {
	v := itemValue(payload)
	switch len(payload) {
	case 1:
		return int32(int8(v))
	case 2:
		return int32(int16(v))
	}
	return int32(v)
}

// Parse walks a report descriptor in a single pass and returns the logical
// reports it describes. A malformed descriptor is not an error: parsing
// stops at the point of anomaly and whatever fields were already
// materialized are returned.
func Parse(desc []byte) []*ReportInfo {
	var (
		reports []*ReportInfo
		cur     *ReportInfo
		depth   int
		g       globalState
		l       localState
	)

	// startReport opens a logical report inheriting the current top-level
	// usage; a mid-collection report-id change also lands here.
	startReport := func(usagePage, usage uint16) {
		cur = &ReportInfo{
			ID:        g.reportID,
			UsagePage: usagePage,
			Usage:     usage,
		}
		reports = append(reports, cur)
	}

	for i := 0; i < len(desc); {
		header := desc[i]
		if header == longItemPrefix {
			// Long items carry nothing we decode; skip header+size+tag+data.
			if i+2 > len(desc) {
				break
			}
			i += 3 + int(desc[i+1])
			continue
		}

		tag := header >> 4
		typ := (header >> 2) & 0b11
		size := int(header & 0b11)
		if size == 3 {
			size = 4
		}
		i++
		if i+size > len(desc) {
			break
		}
		payload := desc[i : i+size]
		i += size

		switch typ {
		case itemTypeMain:
			switch tag {
			case tagInput, tagOutput, tagFeature:
				kind := KindInput
				switch tag {
				case tagOutput:
					kind = KindOutput
				case tagFeature:
					kind = KindFeature
				}
				if cur != nil {
					materialize(cur, kind, &g, &l)
				}
			case tagCollection:
				if depth == 0 {
					var usage uint16
					if len(l.usages) > 0 {
						usage = uint16(l.usages[0])
					}
					startReport(g.usagePage, usage)
				}
				depth++
			case tagEndCollection:
				if depth > 0 {
					depth--
				}
				if depth == 0 {
					cur = nil
				}
			}
			l.clear()

		case itemTypeGlobal:
			switch tag {
			case tagUsagePage:
				g.usagePage = uint16(itemValue(payload))
			case tagLogicalMin:
				g.logicalMin = itemValueSigned(payload)
			case tagLogicalMax:
				g.logicalMax = itemValueSigned(payload)
			case tagReportSize:
				g.reportSize = itemValue(payload)
			case tagReportCount:
				g.reportCount = itemValue(payload)
			case tagReportID:
				id := uint8(itemValue(payload))
				if cur != nil && len(cur.Items) > 0 && cur.ID != id {
					// One collection describing several id-tagged
					// reports: delimit a fresh one.
					page, usage := cur.UsagePage, cur.Usage
					g.reportID = id
					startReport(page, usage)
				} else {
					g.reportID = id
					if cur != nil {
						cur.ID = id
					}
				}
			}

		case itemTypeLocal:
			switch tag {
			case tagUsage:
				u := itemValue(payload)
				if size < 4 {
					// Short usages live on the current global page.
					u |= uint32(g.usagePage) << 16
				}
				l.usages = append(l.usages, u)
			case tagUsageMin:
				l.usageMin = itemValue(payload)
				l.hasRange = true
			case tagUsageMax:
				l.usageMax = itemValue(payload)
				l.hasRange = true
			}
		}
	}

	return reports
}

// materialize appends reportCount fields at consecutive bit offsets. With
// fewer queued usages than fields the last usage is broadcast across the
// remainder (array semantics); a usage range assigns min+n per field.
func materialize(cur *ReportInfo, kind ItemKind, g *globalState, l *localState) {
	for n := uint32(0); n < g.reportCount; n++ {
		page := g.usagePage
		var usage uint16

		switch {
		case len(l.usages) > 0:
			u := l.usages[len(l.usages)-1]
			if int(n) < len(l.usages) {
				u = l.usages[n]
			}
			if p := uint16(u >> 16); p != 0 {
				page = p
			}
			usage = uint16(u)
		case l.hasRange:
			u := l.usageMin + n
			if u > l.usageMax {
				u = l.usageMax
			}
			usage = uint16(u)
		}

		cur.Items = append(cur.Items, ReportItem{
			BitOffset:  cur.bits[kind],
			BitSize:    uint8(g.reportSize),
			Kind:       kind,
			UsagePage:  page,
			Usage:      usage,
			LogicalMin: g.logicalMin,
			LogicalMax: g.logicalMax,
		})
		cur.bits[kind] += g.reportSize
	}
}
