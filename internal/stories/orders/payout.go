package orders

import "usta-bot/internal/stories/geo"

// ComputePayout derives the money columns from the order's current inputs.
// A valid warranty always zeroes the work fee; otherwise an unset work type counts as easy.
func ComputePayout(o Order) Payout {
	p := Payout{
		ProductTotal: int64(o.Quantity) * o.UnitPrice,
		DistanceFee:  geo.DistanceFee(o.DistanceKm),
	}

	switch {
	case o.Warranty == WarrantyValid:
		p.WorkFee = 0
	case o.WorkType != nil:
		p.WorkFee = geo.WorkFee(*o.WorkType)
	default:
		p.WorkFee = geo.WorkFee(geo.WorkTypeEasy)
	}

	p.TotalPayment = p.ProductTotal + p.DistanceFee + p.WorkFee
	return p
}
