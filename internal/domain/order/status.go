package order

// Status is the order lifecycle state. It only ever moves forward:
//
//	pending -> accepted -> heading_to_canteen -> heading_to_customer -> completed
//
// cancelled is terminal and reachable only by administrative action; no API
// path transitions into it.
type Status string

const (
	StatusPending           Status = "pending"
	StatusAccepted          Status = "accepted"
	StatusHeadingToCanteen  Status = "heading_to_canteen"
	StatusHeadingToCustomer Status = "heading_to_customer"
	StatusCompleted         Status = "completed"
	StatusCancelled         Status = "cancelled"
)

// advances are the jastiper-driven transitions. pending->accepted happens via
// Accept and heading_to_customer->completed via buyer confirmation, so
// neither appears here.
var advances = map[Status]Status{
	StatusAccepted:         StatusHeadingToCanteen,
	StatusHeadingToCanteen: StatusHeadingToCustomer,
}

// Next returns the status a jastiper advance moves to, or false when the
// current status has no jastiper-driven successor.
func (s Status) Next() (Status, bool) {
	next, ok := advances[s]
	return next, ok
}

// Active reports whether a jastiper is currently working the order.
func (s Status) Active() bool {
	switch s {
	case StatusAccepted, StatusHeadingToCanteen, StatusHeadingToCustomer:
		return true
	}
	return false
}

// Label is the customer-facing Indonesian status label.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Menunggu Jastiper"
	case StatusAccepted:
		return "Diterima Jastiper"
	case StatusHeadingToCanteen:
		return "Menuju Kantin"
	case StatusHeadingToCustomer:
		return "Menuju Customer"
	case StatusCompleted:
		return "Selesai"
	case StatusCancelled:
		return "Dibatalkan"
	}
	return string(s)
}
