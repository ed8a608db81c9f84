package arbiter

import "errors"

// Capability names a privileged action guarded by the authorization policy.
type Capability string

const (
	// CapabilityRegisterArbitrators is held by the fixed owner identity only.
	CapabilityRegisterArbitrators Capability = "register_arbitrators"
	// CapabilityResolveDisputes is held by registered arbitrators.
	CapabilityResolveDisputes Capability = "resolve_disputes"
)

var (
	// ErrOwnerOnly signals a non-owner attempted an owner-only action.
	ErrOwnerOnly = errors.New("arbiter: owner only")
	// ErrNotAuthorized signals the caller lacks the required capability.
	ErrNotAuthorized = errors.New("arbiter: not authorized")
	// ErrUnknownCapability signals a capability the policy does not know.
	ErrUnknownCapability = errors.New("arbiter: unknown capability")
)

// Policy decides role-flag authorization. It is deliberately separate from
// the storage and the lifecycle service so decisions can be tested on their
// own: callers fetch the arbitrator flag and pass it in.
type Policy struct {
	owner string
}

// NewPolicy fixes the owner identity for the deployment.
func NewPolicy(owner string) Policy {
	return Policy{owner: owner}
}

// Owner returns the fixed owner identity.
func (p Policy) Owner() string { return p.owner }

// Check returns nil when caller holds the capability. arbitrator reflects
// the caller's registry flag at decision time.
func (p Policy) Check(caller string, capability Capability, arbitrator bool) error {
	switch capability {
	case CapabilityRegisterArbitrators:
		if caller == "" || caller != p.owner {
			return ErrOwnerOnly
		}
		return nil
	case CapabilityResolveDisputes:
		if !arbitrator {
			return ErrNotAuthorized
		}
		return nil
	default:
		return ErrUnknownCapability
	}
}
