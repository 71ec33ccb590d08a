package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInMemory(t *testing.T) {
	t.Parallel()

	s := NewInMemory()

	assert.True(t, s.Online())
	assert.Equal(t, StatusIdle, s.SyncStatus())
	assert.Nil(t, s.SyncError())
	assert.Nil(t, s.LastSyncTime())
	assert.Empty(t, s.UserRole())
	assert.Empty(t, s.Notifications())
}

func TestInMemoryUser(t *testing.T) {
	t.Parallel()

	s := NewInMemory()

	s.SetUser("user-1", "owner")
	assert.Equal(t, "user-1", s.UserID())
	assert.Equal(t, "owner", s.UserRole())

	// sign-out clears both
	s.SetUser("", "")
	assert.Empty(t, s.UserID())
	assert.Empty(t, s.UserRole())
}

func TestInMemorySyncState(t *testing.T) {
	t.Parallel()

	s := NewInMemory()

	s.SetSyncStatus(StatusSyncing)
	assert.Equal(t, StatusSyncing, s.SyncStatus())

	message := "backend unreachable"
	s.SetSyncError(&message)
	require.NotNil(t, s.SyncError())
	assert.Equal(t, message, *s.SyncError())

	s.SetSyncError(nil)
	assert.Nil(t, s.SyncError())

	now := time.Now()
	s.SetLastSyncTime(now)
	require.NotNil(t, s.LastSyncTime())
	assert.Equal(t, now, *s.LastSyncTime())
}

func TestInMemoryCollectionsReplace(t *testing.T) {
	t.Parallel()

	s := NewInMemory()

	s.SetProducts([]Product{{ID: 1, SKU: "A-1"}, {ID: 2, SKU: "A-2"}})
	assert.Len(t, s.Products(), 2)

	// setters replace the whole collection, never merge
	s.SetProducts([]Product{{ID: 3, SKU: "B-1"}})
	products := s.Products()
	require.Len(t, products, 1)
	assert.Equal(t, int64(3), products[0].ID)

	// a failed fetch writes an empty snapshot
	s.SetProducts(nil)
	assert.Empty(t, s.Products())

	s.SetCarBrands([]CarBrand{{ID: 1, Name: "Toyota"}})
	s.SetCarModels([]CarModel{{ID: 1, BrandID: 1, Name: "Corolla"}})
	s.SetProductBrands([]ProductBrand{{ID: 1, Name: "Bosch"}})
	s.SetCategories([]Category{{ID: 1, Name: "Filters"}})
	s.SetSuppliers([]Supplier{{ID: 1, Name: "Main supplier"}})
	s.SetDistributors([]Distributor{{ID: 1, Name: "North"}})
	s.SetOrders([]Order{{ID: 1, CustomerID: 7}})
	s.SetCustomers([]Customer{{ID: 7, Name: "Ali"}})

	assert.Len(t, s.CarBrands(), 1)
	assert.Len(t, s.CarModels(), 1)
	assert.Len(t, s.ProductBrands(), 1)
	assert.Len(t, s.Categories(), 1)
	assert.Len(t, s.Suppliers(), 1)
	assert.Len(t, s.Distributors(), 1)
	assert.Len(t, s.Orders(), 1)
	assert.Len(t, s.Customers(), 1)
}

func TestInMemoryNotifications(t *testing.T) {
	t.Parallel()

	s := NewInMemory()

	s.AddNotification(Notification{ID: "n1", Title: "first", Type: NotificationInfo})
	s.AddNotification(Notification{ID: "n2", Title: "second", Type: NotificationError})

	feed := s.Notifications()
	require.Len(t, feed, 2)
	assert.Equal(t, "n1", feed[0].ID)
	assert.Equal(t, "n2", feed[1].ID)

	// the returned slice is a copy
	feed[0].ID = "mutated"
	assert.Equal(t, "n1", s.Notifications()[0].ID)
}

func TestInMemoryConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			s.SetSyncStatus(StatusSyncing)
			_ = s.SyncStatus()
		}()
		go func() {
			defer wg.Done()
			s.SetProducts([]Product{{ID: 1}})
			_ = s.Products()
		}()
		go func() {
			defer wg.Done()
			s.AddNotification(Notification{ID: "n"})
			_ = s.Notifications()
		}()
	}
	wg.Wait()

	assert.Len(t, s.Notifications(), 10)
}
