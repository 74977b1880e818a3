package auth

// Capabilities answers "may this be shown?" for rendering code.
// It carries no security weight: whatever it hides must still pass the gate on the server.
type Capabilities struct {
	grants Grants
}

// CapabilitiesFor builds Capabilities from the client-visible claim. Unknown keys in the
// map simply never match a registered key.
func CapabilitiesFor(cc *ClientClaim) Capabilities {
	if cc == nil {
		return Capabilities{}
	}

	g := make(Grants, len(cc.Permissions))
	for k, v := range cc.Permissions {
		g[Key(k)] = v
	}

	return Capabilities{grants: g}
}

// CapabilitiesOf is a shortcut for server-rendered pages holding the claim itself.
func CapabilitiesOf(c *Claim) Capabilities {
	if c == nil {
		return Capabilities{}
	}

	cc := c.Client()

	return CapabilitiesFor(&cc)
}

// Can reports whether the permission is granted.
func (c Capabilities) Can(permission string) bool {
	return c.grants.Allows(Key(permission))
}

// CanAny reports whether at least one permission is granted. An empty list is false.
func (c Capabilities) CanAny(permissions ...string) bool {
	for _, p := range permissions {
		if c.Can(p) {
			return true
		}
	}

	return false
}
