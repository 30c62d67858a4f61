package dto

import (
	"driver-batching-service/internal/domain"
	"time"

	"github.com/shopspring/decimal"
)

type OrderResponse struct {
	ID              string              `json:"id"`
	RestaurantID    string              `json:"restaurant_id"`
	RestaurantName  string              `json:"restaurant_name"`
	CreatedAt       time.Time           `json:"created_at"`
	Location        *domain.Coordinates `json:"delivery_location,omitempty"`
	DeliveryAddress string              `json:"delivery_address,omitempty"`
	ItemCount       int                 `json:"item_count"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
}

type BatchResponse struct {
	Index  int              `json:"index"`
	Orders []OrderResponse  `json:"orders"`
	Info   domain.BatchInfo `json:"info"`
}

type FlatOrderResponse struct {
	OrderResponse
	BatchIndex    int  `json:"batch_index"`
	HasBatchmates bool `json:"has_batchmates"`
}

type BatchPlanResponse struct {
	DriverID                 string              `json:"driver_id"`
	MaxBatchOrders           int                 `json:"max_batch_orders"`
	Batches                  []BatchResponse     `json:"batches"`
	Orders                   []FlatOrderResponse `json:"orders"`
	HasBatchableOrders       bool                `json:"has_batchable_orders"`
	SameRestaurantBatchCount int                 `json:"same_restaurant_batch_count"`
}

func NewOrderResponse(o *domain.DeliverableOrder) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		RestaurantID:    o.RestaurantID,
		RestaurantName:  o.RestaurantName,
		CreatedAt:       o.CreatedAt,
		Location:        o.DeliveryLocation,
		DeliveryAddress: o.DeliveryAddress,
		ItemCount:       o.ItemCount,
		TotalAmount:     o.TotalAmount,
	}
}

func NewBatchPlanResponse(plan *domain.BatchPlan, maxBatchOrders int) BatchPlanResponse {
	res := BatchPlanResponse{
		DriverID:                 plan.DriverID,
		MaxBatchOrders:           maxBatchOrders,
		Batches:                  make([]BatchResponse, 0, len(plan.Batches)),
		Orders:                   make([]FlatOrderResponse, 0, len(plan.Orders)),
		HasBatchableOrders:       plan.HasBatchableOrders,
		SameRestaurantBatchCount: plan.SameRestaurantBatchCount,
	}

	for i, b := range plan.Batches {
		orders := make([]OrderResponse, 0, b.Batch.Len())
		for _, o := range b.Batch.Orders {
			orders = append(orders, NewOrderResponse(o))
		}
		res.Batches = append(res.Batches, BatchResponse{Index: i, Orders: orders, Info: b.Info})
	}

	for _, ov := range plan.Orders {
		res.Orders = append(res.Orders, FlatOrderResponse{
			OrderResponse: NewOrderResponse(ov.Order),
			BatchIndex:    ov.BatchIndex,
			HasBatchmates: ov.HasBatchmates,
		})
	}

	return res
}
