package core

import (
	"fmt"

	"SmilePos/app/models"
)

// clumpThreshold: more than this many layouts sitting at the origin signals
// a bad migration rather than a deliberate arrangement.
const clumpThreshold = 5

// CanonicalLayouts returns the expected floor plan: 21 sala tables ("1".."21",
// named M1..M21) and 9 terraza tables ("T1".."T9"), each at its default grid
// position.
func CanonicalLayouts() []models.TableLayout {
	layouts := make([]models.TableLayout, 0, 30)
	for i := 1; i <= 21; i++ {
		id := fmt.Sprintf("%d", i)
		x, y := salaGridPosition(i - 1)
		layouts = append(layouts, models.TableLayout{
			ID:   id,
			Name: "M" + id,
			X:    x,
			Y:    y,
			Type: models.ZoneSala,
		})
	}
	for i := 1; i <= 9; i++ {
		id := fmt.Sprintf("T%d", i)
		x, y := terrazaGridPosition(i - 1)
		layouts = append(layouts, models.TableLayout{
			ID:   id,
			Name: id,
			X:    x,
			Y:    y,
			Type: models.ZoneTerraza,
		})
	}
	return layouts
}

// 7x3 grid for the sala, 3x3 for the terraza; all positions stay in [0,100)
func salaGridPosition(idx int) (float64, float64) {
	col := idx % 7
	row := idx / 7
	return 4 + float64(col)*13.5, 8 + float64(row)*26
}

func terrazaGridPosition(idx int) (float64, float64) {
	col := idx % 3
	row := idx / 3
	return 10 + float64(col)*30, 12 + float64(row)*28
}

// MissingLayouts returns canonical entries whose id is absent from the stored
// set, ready to be persisted by the repair-on-load step.
func MissingLayouts(stored []models.TableLayout) []models.TableLayout {
	present := make(map[string]bool, len(stored))
	for _, l := range stored {
		present[l.ID] = true
	}
	var missing []models.TableLayout
	for _, l := range CanonicalLayouts() {
		if !present[l.ID] {
			missing = append(missing, l)
		}
	}
	return missing
}

// RegridClumped detects the bad-migration signature of many layouts clumped
// at (0,0) and reassigns all clumped entries onto a simple grid. It returns
// the repositioned entries, or nil when the stored set is healthy. The check
// is a one-time repair heuristic, not a steady-state invariant.
func RegridClumped(stored []models.TableLayout) []models.TableLayout {
	var clumped []models.TableLayout
	for _, l := range stored {
		l.Sanitize()
		if l.X == 0 && l.Y == 0 {
			clumped = append(clumped, l)
		}
	}
	if len(clumped) <= clumpThreshold {
		return nil
	}
	for i := range clumped {
		col := i % 6
		row := i / 6
		clumped[i].X = 5 + float64(col)*15
		clumped[i].Y = 5 + float64(row)*20
	}
	return clumped
}
