package sync

// Collection identifies a privileged resource collection
type Collection string

// Privileged collections fetched in the secondary batch of a sync cycle
const (
	CollectionSuppliers    Collection = "suppliers"
	CollectionDistributors Collection = "distributors"
	CollectionOrders       Collection = "orders"
	CollectionCustomers    Collection = "customers"
)

// Role names recognized by the privileged fetch table
const (
	RoleOwner      = "owner"
	RolePartner    = "partner"
	RoleAdmin      = "admin"
	RoleSubscriber = "subscriber"
)

// privilegedCollections maps a user role to the privileged collections it is
// entitled to. Roles not listed here get the baseline collections only.
var privilegedCollections = map[string][]Collection{
	RoleOwner:      {CollectionSuppliers, CollectionDistributors, CollectionOrders, CollectionCustomers},
	RolePartner:    {CollectionSuppliers, CollectionDistributors, CollectionOrders, CollectionCustomers},
	RoleAdmin:      {CollectionSuppliers, CollectionDistributors},
	RoleSubscriber: {CollectionSuppliers, CollectionDistributors},
}

// PrivilegedCollections returns the privileged collections to fetch for the
// given role, or nil when the role has no privileged access
func PrivilegedCollections(role string) []Collection {
	return privilegedCollections[role]
}
