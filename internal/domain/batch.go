package domain

import "github.com/shopspring/decimal"

// Represents a planner-proposed grouping of orders for a single trip.
// Orders are kept in visiting order, not input order. A Batch is never
// persisted; it only lives inside a planning or selection flow.
type Batch struct {
	Orders []*DeliverableOrder
}

func (b Batch) Len() int { return len(b.Orders) }

// OrderIDs returns the member ids in visiting order.
func (b Batch) OrderIDs() []string {
	ids := make([]string, 0, len(b.Orders))
	for _, o := range b.Orders {
		ids = append(ids, o.ID)
	}
	return ids
}

// Aggregate driver earnings for a set of orders.
type Earnings struct {
	Base  int `json:"base_earnings"`
	Bonus int `json:"bonus"`
	Total int `json:"total"`
}

// Derived, display-oriented facts about a batch.
type BatchInfo struct {
	OrderCount           int             `json:"order_count"`
	TotalItems           int             `json:"total_items"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	Restaurants          []string        `json:"restaurants"`
	IsSameRestaurant     bool            `json:"is_same_restaurant"`
	EstimatedTimeMinutes int             `json:"estimated_time_minutes"`
	Earnings             Earnings        `json:"earnings"`
}

// A batch paired with its derived info, as shown on the dashboard.
type BatchView struct {
	Batch Batch
	Info  BatchInfo
}

// A flat-list entry for the "all orders" view.
type OrderView struct {
	Order         *DeliverableOrder
	BatchIndex    int
	HasBatchmates bool
}

// BatchPlan is the output of one planning pass over the availability pool.
// It is recomputed from scratch on every refresh.
type BatchPlan struct {
	DriverID                 string
	Batches                  []BatchView
	Orders                   []OrderView
	HasBatchableOrders       bool
	SameRestaurantBatchCount int
}
