package domain

import "context"

// Role represents an operator's access level.
type Role string

const (
	RoleAdmin              Role = "admin"
	RoleManager            Role = "manager"
	RoleClientManager      Role = "client_manager"
	RoleTransactionManager Role = "transaction_manager"
	RoleVehicleManager     Role = "vehicle_manager"
	RoleViewer             Role = "viewer"
)

// Capability is an action a role may be allowed to perform.
type Capability string

const (
	CapManageClients  Capability = "manage_clients"
	CapManageCommerce Capability = "manage_commerce"
	CapManageVehicles Capability = "manage_vehicles"
	CapManageTreasury Capability = "manage_treasury"
	CapAdjustBalances Capability = "adjust_balances"
	CapAllocateIDs    Capability = "allocate_ids"
	CapViewReports    Capability = "view_reports"
	CapViewLedger     Capability = "view_ledger"
	CapDeleteRecords  Capability = "delete_records"
	CapViewActivity   Capability = "view_activity"
)

var roleCapabilities = map[Role][]Capability{
	RoleManager: {
		CapManageClients, CapManageCommerce, CapManageVehicles,
		CapManageTreasury, CapViewReports, CapViewLedger,
	},
	RoleClientManager:      {CapManageClients, CapViewReports},
	RoleTransactionManager: {CapManageCommerce, CapManageTreasury, CapViewReports},
	RoleVehicleManager:     {CapManageVehicles, CapViewReports},
	RoleViewer:             {CapViewReports},
}

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	if r == RoleAdmin {
		return true
	}
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants a capability. Admin can do everything.
func (r Role) Can(c Capability) bool {
	if r == RoleAdmin {
		return true
	}

	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}

	return false
}

// Actor is the authenticated identity a ledger mutation is attributed to.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// SystemActor is used when no identity is attached to the context.
var SystemActor = Actor{ID: "system", Name: "system", Role: RoleAdmin}

type actorContextKey struct{}

// WithActor attaches an actor to ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, a)
}

// ActorFromContext returns the actor stored in ctx.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorContextKey{}).(Actor)
	return a, ok
}

// ActorOrSystem returns the actor stored in ctx or SystemActor.
func ActorOrSystem(ctx context.Context) Actor {
	if a, ok := ActorFromContext(ctx); ok {
		return a
	}

	return SystemActor
}
