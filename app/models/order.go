package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the primary order state.
// Pending → Processing → Shipped → Delivered; Cancelled only from Pending.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Valid reports whether s is one of the five order statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ReturnStatus is the secondary state, meaningful once an order is Delivered.
// None → Requested → {Approved|Rejected}; Approved → Returned.
// Refunded is declared in the taxonomy but no operation transitions into it.
type ReturnStatus string

const (
	ReturnNone      ReturnStatus = "None"
	ReturnRequested ReturnStatus = "Requested"
	ReturnApproved  ReturnStatus = "Approved"
	ReturnRejected  ReturnStatus = "Rejected"
	ReturnReturned  ReturnStatus = "Returned"
	ReturnRefunded  ReturnStatus = "Refunded"
)

// Payment methods accepted at checkout.
const (
	PaymentCard   = "Card"
	PaymentUPI    = "UPI"
	PaymentCash   = "Cash"
	PaymentOnline = "Online"
)

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCard, PaymentUPI, PaymentCash, PaymentOnline:
		return true
	}
	return false
}

// OrderItem is a line item: a book reference plus a snapshot of the title,
// author and price at order time, so later catalogue edits never change
// historical orders.
type OrderItem struct {
	BookID   primitive.ObjectID `bson:"bookId" json:"bookId"`
	Title    string             `bson:"title" json:"title"`
	Author   string             `bson:"author" json:"author"`
	Price    int64              `bson:"price" json:"price"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// Order is an order document. The address is copied, not referenced, at
// creation time.
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	Items             []OrderItem        `bson:"items" json:"items"`
	AddressDetails    Address            `bson:"addressDetails" json:"addressDetails"`
	PaymentMethod     string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentID         string             `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	Status            Status             `bson:"status" json:"status"`
	ReturnStatus      ReturnStatus       `bson:"returnStatus" json:"returnStatus"`
	ReturnReason      string             `bson:"returnReason,omitempty" json:"returnReason,omitempty"`
	ReturnRequestDate *time.Time         `bson:"returnRequestDate,omitempty" json:"returnRequestDate,omitempty"`
	TotalAmount       int64              `bson:"totalAmount" json:"totalAmount"`
	DeliveredAt       *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsOwnedBy reports whether the order belongs to the given user.
func (o *Order) IsOwnedBy(userID primitive.ObjectID) bool {
	return o.UserID == userID
}

// CanCancel reports whether the user-initiated cancel path is open.
// Cancelled is reachable only from Pending.
func (o *Order) CanCancel() bool { return o.Status == StatusPending }

// ReturnWindowOpen reports whether a return may still be requested at now.
// The window is measured from the server-stored delivery timestamp; orders
// delivered before that field existed fall back to updatedAt.
func (o *Order) ReturnWindowOpen(now time.Time, window time.Duration) bool {
	since := o.UpdatedAt
	if o.DeliveredAt != nil {
		since = *o.DeliveredAt
	}
	return now.Sub(since) <= window
}

// Total computes the order total as Σ price×quantity over the line items.
func (o *Order) Total() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}
