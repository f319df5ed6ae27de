package orders

import (
	"errors"
	"testing"

	"usta-bot/internal/stories/geo"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from   Status
		event  Event
		want   Status
		wantOK bool
	}{
		{StatusNew, EventAccept, StatusAccepted, true},
		{StatusAccepted, EventDepart, StatusOnWay, true},
		{StatusOnWay, EventArrive, StatusArrived, true},
		{StatusArrived, EventWarrantyExpired, StatusFinishOrderReady, true},
		{StatusArrived, EventWarrantyValid, StatusSparePartPending, true},
		{StatusSparePartPending, EventSparePartConfirmed, StatusSparePartReceived, true},
		{StatusFinishOrderReady, EventFinish, StatusDelivered, true},
		{StatusSparePartReceived, EventFinish, StatusDelivered, true},

		{StatusAccepted, EventAccept, "", false},
		{StatusNew, EventDepart, "", false},
		{StatusOnWay, EventDepart, "", false},
		{StatusSparePartPending, EventFinish, "", false},
		{StatusArrived, EventFinish, "", false},
		{StatusDelivered, EventFinish, "", false},
		{StatusFinishOrderReady, EventWarrantyValid, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			got, ok := Next(tt.from, tt.event)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Next(%s, %s) = (%s, %v), want (%s, %v)", tt.from, tt.event, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTransitionsOnlyMoveForward(t *testing.T) {
	rank := map[Status]int{}
	for i, s := range Statuses() {
		rank[s] = i
	}

	for key, to := range transitions {
		if rank[to] <= rank[key.from] {
			t.Errorf("%s --%s--> %s moves backward", key.from, key.event, to)
		}
	}
}

func TestDeliveredIsTerminal(t *testing.T) {
	for key := range transitions {
		if key.from == StatusDelivered {
			t.Errorf("delivered has an outgoing transition on %s", key.event)
		}
	}
}

func TestComputePayout(t *testing.T) {
	difficult := geo.WorkTypeDifficult
	easy := geo.WorkTypeEasy

	tests := []struct {
		name        string
		order       Order
		wantWorkFee int64
	}{
		{
			name:        "expired and difficult",
			order:       Order{Quantity: 2, UnitPrice: 500000, DistanceKm: 2, Warranty: WarrantyExpired, WorkType: &difficult},
			wantWorkFee: 150000,
		},
		{
			name:        "expired and easy",
			order:       Order{Quantity: 1, UnitPrice: 500000, DistanceKm: 2, Warranty: WarrantyExpired, WorkType: &easy},
			wantWorkFee: 100000,
		},
		{
			name:        "no work type counts as easy",
			order:       Order{Quantity: 1, UnitPrice: 500000, DistanceKm: 0, Warranty: WarrantyUnknown},
			wantWorkFee: 100000,
		},
		{
			name:        "valid warranty ignores difficult",
			order:       Order{Quantity: 1, UnitPrice: 500000, DistanceKm: 9, Warranty: WarrantyValid, WorkType: &difficult},
			wantWorkFee: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ComputePayout(tt.order)

			if p.WorkFee != tt.wantWorkFee {
				t.Errorf("work fee = %d, want %d", p.WorkFee, tt.wantWorkFee)
			}
			if p.ProductTotal != int64(tt.order.Quantity)*tt.order.UnitPrice {
				t.Errorf("product total = %d", p.ProductTotal)
			}
			if p.DistanceFee != geo.DistanceFee(tt.order.DistanceKm) {
				t.Errorf("distance fee = %d", p.DistanceFee)
			}
			if p.TotalPayment != p.ProductTotal+p.DistanceFee+p.WorkFee {
				t.Errorf("total %d is not the sum of its parts", p.TotalPayment)
			}
		})
	}
}

func TestShortageError(t *testing.T) {
	var err error = &ShortageError{Product: "Konditsioner", Region: "Termiz", Requested: 5, Available: 3}

	if !errors.Is(err, ErrInsufficientStock) {
		t.Error("ShortageError must unwrap to ErrInsufficientStock")
	}

	var se *ShortageError
	if !errors.As(err, &se) || se.Shortfall() != 2 {
		t.Errorf("unexpected shortage: %v", err)
	}
}

func TestFormatSum(t *testing.T) {
	tests := map[int64]string{
		0:       "0 so'm",
		6000:    "6 000 so'm",
		150000:  "150 000 so'm",
		2006000: "2 006 000 so'm",
		-1500:   "-1 500 so'm",
	}
	for in, want := range tests {
		if got := FormatSum(in); got != want {
			t.Errorf("FormatSum(%d) = %q, want %q", in, got, want)
		}
	}
}
