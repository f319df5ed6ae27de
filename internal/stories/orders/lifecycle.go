package orders

type Event string

const (
	EventAccept             Event = "accept"
	EventDepart             Event = "depart"
	EventArrive             Event = "arrive"
	EventWarrantyExpired    Event = "warranty_expired"
	EventWarrantyValid      Event = "warranty_valid"
	EventSparePartConfirmed Event = "spare_part_confirmed"
	EventFinish             Event = "finish"
)

type transitionKey struct {
	from  Status
	event Event
}

var transitions = map[transitionKey]Status{
	{StatusNew, EventAccept}:                          StatusAccepted,
	{StatusAccepted, EventDepart}:                     StatusOnWay,
	{StatusOnWay, EventArrive}:                        StatusArrived,
	{StatusArrived, EventWarrantyExpired}:             StatusFinishOrderReady,
	{StatusArrived, EventWarrantyValid}:               StatusSparePartPending,
	{StatusSparePartPending, EventSparePartConfirmed}: StatusSparePartReceived,
	{StatusFinishOrderReady, EventFinish}:             StatusDelivered,
	{StatusSparePartReceived, EventFinish}:            StatusDelivered,
}

// Next returns the status an event leads to, or false when the event is not valid in from.
func Next(from Status, event Event) (Status, bool) {
	to, ok := transitions[transitionKey{from: from, event: event}]
	return to, ok
}

var statusOrder = []Status{
	StatusNew,
	StatusAccepted,
	StatusOnWay,
	StatusArrived,
	StatusFinishOrderReady,
	StatusSparePartPending,
	StatusSparePartReceived,
	StatusDelivered,
}

// Statuses returns all statuses in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// evidenceStatuses are the statuses in which photos and completion GPS may be attached.
var evidenceStatuses = []Status{
	StatusArrived,
	StatusFinishOrderReady,
	StatusSparePartPending,
	StatusSparePartReceived,
}

func canAttachEvidence(s Status) bool {
	for _, e := range evidenceStatuses {
		if e == s {
			return true
		}
	}
	return false
}
