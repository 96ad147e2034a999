package agents

// NeighborhoodStats is the per-neighborhood summary gathered at the end of a
// timestep.
type NeighborhoodStats struct {
	NeighborhoodID ID
	RegionID       ID
	X, Y           float64
	Population     int
	Households     int
	Marriages      int // couples with both partners in the neighborhood
	NonWoodFuel    int // households using any non-wood fuel
	Land           LandUse
}

// TotalArea returns the summed land area.
func (s NeighborhoodStats) TotalArea() float64 { return s.Land.Total() }

// PercentAgricultural is the agricultural-vegetation share of total area.
func (s NeighborhoodStats) PercentAgricultural() float64 {
	return share(s.Land.AgVeg, s.Land.Total())
}

// PercentVegetated is the share of both vegetation pools.
func (s NeighborhoodStats) PercentVegetated() float64 {
	return share(s.Land.AgVeg+s.Land.NonAgVeg, s.Land.Total())
}

// PercentBuilt is the share of private and public building.
func (s NeighborhoodStats) PercentBuilt() float64 {
	return share(s.Land.PrivBldg+s.Land.PubBldg, s.Land.Total())
}

func share(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total
}

// Stats summarizes the neighborhood without modifying it.
func (n *Neighborhood) Stats() NeighborhoodStats {
	st := NeighborhoodStats{
		NeighborhoodID: n.id,
		RegionID:       NoID,
		X:              n.X,
		Y:              n.Y,
		Households:     n.Len(),
		Land:           n.Land,
	}
	if n.parent != nil {
		st.RegionID = n.parent.id
	}
	for _, h := range n.Members() {
		st.Population += h.Len()
		if h.UsesNonWoodFuel {
			st.NonWoodFuel++
		}
		for _, p := range h.Members() {
			// Count each couple once, from the lower identifier.
			if s := p.Spouse(); s != nil && p.id < s.id && s.Household() != nil && s.Household().Neighborhood() == n {
				st.Marriages++
			}
		}
	}
	return st
}

// Aggregate returns stats for every neighborhood in ascending identifier order.
func (r *Region) Aggregate() []NeighborhoodStats {
	nbhs := r.Members()
	out := make([]NeighborhoodStats, len(nbhs))
	for i, n := range nbhs {
		out[i] = n.Stats()
	}
	return out
}
