package store

import "time"

// Status represents the current phase of a synchronization cycle.
type Status string

const (
	// StatusIdle means no sync is in progress and no recent outcome is displayed
	StatusIdle Status = "idle"

	// StatusSyncing means a sync cycle is currently in progress
	StatusSyncing Status = "syncing"

	// StatusSuccess means the last sync cycle completed successfully
	StatusSuccess Status = "success"

	// StatusError means the last sync cycle failed
	StatusError Status = "error"
)

// NotificationType classifies a notification for display purposes
type NotificationType string

const (
	// NotificationInfo is an informational notification
	NotificationInfo NotificationType = "info"

	// NotificationError is an error notification
	NotificationError NotificationType = "error"

	// NotificationWarning is a warning notification
	NotificationWarning NotificationType = "warning"

	// NotificationSuccess is a success notification
	NotificationSuccess NotificationType = "success"
)

// Notification is a user-visible message handed to the store. It is never
// mutated by the sync engine after creation; ownership transfers to the
// store on AddNotification.
type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// CarBrand is a vehicle manufacturer
type CarBrand struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// CarModel is a vehicle model belonging to a car brand
type CarModel struct {
	ID       int64  `json:"id"`
	BrandID  int64  `json:"brand_id"`
	Name     string `json:"name"`
	YearFrom int    `json:"year_from,omitempty"`
	YearTo   int    `json:"year_to,omitempty"`
}

// ProductBrand is a parts manufacturer
type ProductBrand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a product category, optionally nested under a parent
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// Product is a sellable part
type Product struct {
	ID         int64   `json:"id"`
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	BrandID    int64   `json:"brand_id,omitempty"`
	CategoryID int64   `json:"category_id,omitempty"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
}

// Supplier is a parts supplier (privileged data)
type Supplier struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	City  string `json:"city,omitempty"`
}

// Distributor is a regional distributor (privileged data)
type Distributor struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Region string `json:"region,omitempty"`
}

// Order is a customer order (privileged data)
type Order struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Status     string    `json:"status"`
	Total      float64   `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
}

// Customer is a registered customer (privileged data)
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}
