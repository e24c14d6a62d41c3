package zipfmt

import "time"

// The MS-DOS timestamp packs year 1980..2107, month, and day into the date
// word and hour, minute, and second/2 into the time word.
const (
	dosEpochYear = 1980
	dosMaxYear   = 2107
)

// DOSTime converts t to the MS-DOS date and time header fields. The zero
// time encodes as zero fields, the marker for "no timestamp recorded".
// Times outside the representable range clamp to its boundaries, and the
// two-second resolution truncates odd seconds.
func DOSTime(t time.Time) (date, tm uint16) {
	if t.IsZero() {
		return 0, 0
	}
	if t.Year() < dosEpochYear {
		return 1 | 1<<5, 0 // 1980-01-01 00:00:00
	}
	if t.Year() > dosMaxYear {
		return 31 | 12<<5 | (dosMaxYear-dosEpochYear)<<9, 29 | 59<<5 | 23<<11
	}
	date = uint16(t.Day()) | uint16(t.Month())<<5 | uint16(t.Year()-dosEpochYear)<<9
	tm = uint16(t.Second()/2) | uint16(t.Minute())<<5 | uint16(t.Hour())<<11
	return date, tm
}
