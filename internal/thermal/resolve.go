package thermal

import "math"

// DefaultMatchThreshold is the RGB-space distance below which a nearest-match
// scan accepts a candidate without examining the rest of the table.
const DefaultMatchThreshold = 10.0

// MaxRGBDistance is the largest possible Euclidean distance between two
// colours in RGB space (black to white).
var MaxRGBDistance = math.Sqrt(3 * 255 * 255)

// Resolve looks up the calibrated temperature for a colour. An exact hit on
// the packed key returns immediately. Otherwise the table is scanned in
// insertion order for the entry at minimum Euclidean RGB distance; the scan
// stops early at the first entry closer than threshold. A threshold <= 0
// falls back to DefaultMatchThreshold.
//
// ok is false only when the table holds no entries at all; any non-empty
// table always yields some nearest temperature.
func (t *CalibrationTable) Resolve(r, g, b int, threshold float64) (celsius float64, ok bool) {
	if temp, hit := t.temps[PackRGB(r, g, b)]; hit {
		return temp, true
	}
	if len(t.keys) == 0 {
		return 0, false
	}
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	best := math.MaxFloat64
	for _, key := range t.keys {
		er, eg, eb := UnpackRGB(key)
		dr := float64(r - er)
		dg := float64(g - eg)
		db := float64(b - eb)
		d := math.Sqrt(dr*dr + dg*dg + db*db)
		if d < best {
			best = d
			celsius = t.temps[key]
			if d < threshold {
				break
			}
		}
	}
	return celsius, true
}
