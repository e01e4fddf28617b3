// Package gate resolves bearer credentials to an authenticated principal and
// its capability set. The core packages consume the principal for attribution
// only and treat authorization as already decided.
package gate

import "context"

// Capability is an atomic permission string granted to a principal.
type Capability string

const (
	CapAccountRead      Capability = "account:read"
	CapAccountCreate    Capability = "account:create"
	CapAccountEdit      Capability = "account:edit"
	CapAccountDelete    Capability = "account:delete"
	CapRequestResolve   Capability = "request:resolve"
	CapTransactionWrite Capability = "transaction:write"
	CapTrashRestore     Capability = "trash:restore"
)

// Principal describes the authenticated actor attached to mutating operations.
type Principal struct {
	ID           string
	DisplayName  string
	capabilities map[Capability]struct{}
}

// NewPrincipal constructs a principal with the given capability set.
func NewPrincipal(id, displayName string, caps []Capability) *Principal {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return &Principal{ID: id, DisplayName: displayName, capabilities: set}
}

// Can reports whether the principal holds the capability.
func (p *Principal) Can(c Capability) bool {
	if p == nil {
		return false
	}
	_, ok := p.capabilities[c]
	return ok
}

// Capabilities returns the granted capability strings.
func (p *Principal) Capabilities() []Capability {
	if p == nil {
		return nil
	}
	out := make([]Capability, 0, len(p.capabilities))
	for c := range p.capabilities {
		out = append(out, c)
	}
	return out
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when absent.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
