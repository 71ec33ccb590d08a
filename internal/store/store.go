// Package store holds the shared application state mirrored from the
// backend: the resource collections, the sync status machine, connectivity
// and role flags, and the notification feed.
package store

import (
	"sync"
	"time"
)

// Store is the contract the sync engine consumes. Collection setters replace
// the whole collection; a failed fetch upstream still overwrites with an
// empty slice (last good snapshot or empty, never a merge).
type Store interface {
	// Connectivity and identity flags
	Online() bool
	SetOnline(online bool)
	UserRole() string
	SetUser(id, role string)
	UserID() string

	// Sync state
	SyncStatus() Status
	SetSyncStatus(status Status)
	SyncError() *string
	SetSyncError(message *string)
	LastSyncTime() *time.Time
	SetLastSyncTime(t time.Time)

	// Baseline collections
	CarBrands() []CarBrand
	SetCarBrands(items []CarBrand)
	CarModels() []CarModel
	SetCarModels(items []CarModel)
	ProductBrands() []ProductBrand
	SetProductBrands(items []ProductBrand)
	Categories() []Category
	SetCategories(items []Category)
	Products() []Product
	SetProducts(items []Product)

	// Privileged collections
	Suppliers() []Supplier
	SetSuppliers(items []Supplier)
	Distributors() []Distributor
	SetDistributors(items []Distributor)
	Orders() []Order
	SetOrders(items []Order)
	Customers() []Customer
	SetCustomers(items []Customer)

	// Notifications
	AddNotification(n Notification)
	Notifications() []Notification
}

// InMemory is the default in-memory Store implementation. All methods are
// safe for concurrent use; the orchestrator ticker, the websocket read loop
// and deferred status resets run on separate goroutines.
type InMemory struct {
	mu sync.RWMutex

	online   bool
	userID   string
	userRole string

	syncStatus   Status
	syncError    *string
	lastSyncTime *time.Time

	carBrands     []CarBrand
	carModels     []CarModel
	productBrands []ProductBrand
	categories    []Category
	products      []Product
	suppliers     []Supplier
	distributors  []Distributor
	orders        []Order
	customers     []Customer

	notifications []Notification
}

// NewInMemory creates an empty store. The store starts online with an idle
// sync status and no signed-in user.
func NewInMemory() *InMemory {
	return &InMemory{
		online:     true,
		syncStatus: StatusIdle,
	}
}

// Online reports whether the application considers itself connected to the
// network. The orchestrator skips cycles entirely while offline.
func (s *InMemory) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// SetOnline updates the connectivity flag
func (s *InMemory) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

// UserRole returns the signed-in user's role, or empty when signed out
func (s *InMemory) UserRole() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userRole
}

// UserID returns the signed-in user's ID, or empty when signed out
func (s *InMemory) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// SetUser records the active user identity and role. Pass empty strings on
// sign-out.
func (s *InMemory) SetUser(id, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
	s.userRole = role
}

// SyncStatus returns the current sync status
func (s *InMemory) SyncStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncStatus
}

// SetSyncStatus updates the sync status
func (s *InMemory) SetSyncStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncStatus = status
}

// SyncError returns the last cycle-level error message, or nil
func (s *InMemory) SyncError() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncError
}

// SetSyncError records or clears the cycle-level error message
func (s *InMemory) SetSyncError(message *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncError = message
}

// LastSyncTime returns the completion time of the last successful cycle
func (s *InMemory) LastSyncTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncTime
}

// SetLastSyncTime records the completion time of a successful cycle
func (s *InMemory) SetLastSyncTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyncTime = &t
}

// CarBrands returns the current car brand collection
func (s *InMemory) CarBrands() []CarBrand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carBrands
}

// SetCarBrands replaces the car brand collection
func (s *InMemory) SetCarBrands(items []CarBrand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carBrands = items
}

// CarModels returns the current car model collection
func (s *InMemory) CarModels() []CarModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carModels
}

// SetCarModels replaces the car model collection
func (s *InMemory) SetCarModels(items []CarModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carModels = items
}

// ProductBrands returns the current product brand collection
func (s *InMemory) ProductBrands() []ProductBrand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.productBrands
}

// SetProductBrands replaces the product brand collection
func (s *InMemory) SetProductBrands(items []ProductBrand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productBrands = items
}

// Categories returns the current category collection
func (s *InMemory) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories
}

// SetCategories replaces the category collection
func (s *InMemory) SetCategories(items []Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = items
}

// Products returns the current product collection
func (s *InMemory) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products
}

// SetProducts replaces the product collection
func (s *InMemory) SetProducts(items []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = items
}

// Suppliers returns the current supplier collection
func (s *InMemory) Suppliers() []Supplier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.suppliers
}

// SetSuppliers replaces the supplier collection
func (s *InMemory) SetSuppliers(items []Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers = items
}

// Distributors returns the current distributor collection
func (s *InMemory) Distributors() []Distributor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.distributors
}

// SetDistributors replaces the distributor collection
func (s *InMemory) SetDistributors(items []Distributor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.distributors = items
}

// Orders returns the current order collection
func (s *InMemory) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders
}

// SetOrders replaces the order collection
func (s *InMemory) SetOrders(items []Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = items
}

// Customers returns the current customer collection
func (s *InMemory) Customers() []Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customers
}

// SetCustomers replaces the customer collection
func (s *InMemory) SetCustomers(items []Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = items
}

// AddNotification appends a notification to the feed. The notification is
// stored as-is; defaulting of missing fields happens before handoff.
func (s *InMemory) AddNotification(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

// Notifications returns a copy of the notification feed
func (s *InMemory) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}
