package catalog

// MatchContext is the session snapshot the embedding layer supplies with each
// resolution: which species are active, which are valid at all, and which
// were recently used. The core treats it as read-only; the caller rebuilds it
// whenever the working set changes.
type MatchContext struct {
	WorkingSet map[SpeciesID]struct{}
	AllowedSet map[SpeciesID]struct{}
	RecentSet  map[SpeciesID]struct{}
	Names      map[SpeciesID]SpeciesNames
}

// EmptyContext returns a context with no session state. Lookups against it
// succeed but carry no prior and no working-set restriction.
func EmptyContext() MatchContext {
	return MatchContext{}
}

// InWorkingSet reports whether the species is active in the session.
func (c MatchContext) InWorkingSet(id SpeciesID) bool {
	_, ok := c.WorkingSet[id]
	return ok
}

// InAllowedSet reports whether the species is valid in the current context.
func (c MatchContext) InAllowedSet(id SpeciesID) bool {
	_, ok := c.AllowedSet[id]
	return ok
}

// IsRecent reports whether the species was recently logged.
func (c MatchContext) IsRecent(id SpeciesID) bool {
	_, ok := c.RecentSet[id]
	return ok
}

// NamesFor returns the catalog naming for a species, when known.
func (c MatchContext) NamesFor(id SpeciesID) (SpeciesNames, bool) {
	names, ok := c.Names[id]
	return names, ok
}

// ContextBuilder assembles a MatchContext from plain slices; it exists for
// the session layer and tests so set bookkeeping stays in one place.
type ContextBuilder struct {
	ctx MatchContext
}

// NewContextBuilder returns an empty builder.
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{ctx: MatchContext{
		WorkingSet: make(map[SpeciesID]struct{}),
		AllowedSet: make(map[SpeciesID]struct{}),
		RecentSet:  make(map[SpeciesID]struct{}),
		Names:      make(map[SpeciesID]SpeciesNames),
	}}
}

// WithSpecies registers catalog naming for a species.
func (b *ContextBuilder) WithSpecies(id SpeciesID, canonical, display string) *ContextBuilder {
	if display == "" {
		display = canonical
	}
	b.ctx.Names[id] = SpeciesNames{CanonicalName: canonical, DisplayName: display}
	return b
}

// Working marks species as active; they are implicitly allowed as well.
func (b *ContextBuilder) Working(ids ...SpeciesID) *ContextBuilder {
	for _, id := range ids {
		b.ctx.WorkingSet[id] = struct{}{}
		b.ctx.AllowedSet[id] = struct{}{}
	}
	return b
}

// Allowed marks species as valid in the current context.
func (b *ContextBuilder) Allowed(ids ...SpeciesID) *ContextBuilder {
	for _, id := range ids {
		b.ctx.AllowedSet[id] = struct{}{}
	}
	return b
}

// Recent marks species as recently logged.
func (b *ContextBuilder) Recent(ids ...SpeciesID) *ContextBuilder {
	for _, id := range ids {
		b.ctx.RecentSet[id] = struct{}{}
	}
	return b
}

// Build returns the assembled context.
func (b *ContextBuilder) Build() MatchContext {
	return b.ctx
}
