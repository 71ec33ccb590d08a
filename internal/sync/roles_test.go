package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrivilegedCollections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role string
		want []Collection
	}{
		{
			role: RoleOwner,
			want: []Collection{CollectionSuppliers, CollectionDistributors, CollectionOrders, CollectionCustomers},
		},
		{
			role: RolePartner,
			want: []Collection{CollectionSuppliers, CollectionDistributors, CollectionOrders, CollectionCustomers},
		},
		{
			role: RoleAdmin,
			want: []Collection{CollectionSuppliers, CollectionDistributors},
		},
		{
			role: RoleSubscriber,
			want: []Collection{CollectionSuppliers, CollectionDistributors},
		},
		{
			role: "viewer",
			want: nil,
		},
		{
			role: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run("role "+tt.role, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PrivilegedCollections(tt.role))
		})
	}
}
