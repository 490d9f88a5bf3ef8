package domain

// PC is one catalogued computer build. Its name is fixed at construction and
// it exclusively owns its components tree.
//
// Every mutator reports whether it was applied. Missing categories or
// parameters are not errors, the call simply does nothing.
type PC struct {
	name       string
	components Components
}

// NewPC creates a PC that adopts components as its own. Callers must not
// keep mutating the mapping they pass in.
func NewPC(name string, components Components) *PC {
	return &PC{name: name, components: components}
}

// Name returns the PC name.
func (p *PC) Name() string { return p.name }

// Components returns a deep copy of the components in order.
func (p *PC) Components() Components { return CloneComponents(p.components) }

// Categories returns the category names in order.
func (p *PC) Categories() []string { return p.components.Keys() }

// Spec returns a copy of the Spec stored for category.
func (p *PC) Spec(category string) (Spec, bool) {
	s, ok := p.components.Get(category)
	if !ok {
		return Spec{}, false
	}
	return CloneSpec(s), true
}

// AddComponent appends category with spec unless it already exists. Pass a
// zero Spec for an empty component.
func (p *PC) AddComponent(category string, spec Spec) bool {
	return p.components.Insert(category, spec)
}

// RemoveComponent deletes category.
func (p *PC) RemoveComponent(category string) bool {
	return p.components.Delete(category)
}

// SwapComponent replaces the whole Spec of an existing category, keeping its
// position.
func (p *PC) SwapComponent(category string, spec Spec) bool {
	return p.components.Replace(category, spec)
}

// UpdateComponent sets one parameter of an existing category. An existing
// parameter keeps its stored name and position, a new one is appended.
func (p *PC) UpdateComponent(category, paramName, paramValue string) bool {
	spec, ok := p.components.valueAt(category)
	if !ok {
		return false
	}
	spec.Set(paramName, paramValue)
	return true
}

// MoveComponentUp moves category one position toward the front.
func (p *PC) MoveComponentUp(category string) bool {
	return p.components.MoveUp(category)
}

// MoveComponentDown moves category one position toward the end.
func (p *PC) MoveComponentDown(category string) bool {
	return p.components.MoveDown(category)
}

// RemoveSpecParam deletes paramName from category.
func (p *PC) RemoveSpecParam(category, paramName string) bool {
	spec, ok := p.components.valueAt(category)
	if !ok {
		return false
	}
	return spec.Delete(paramName)
}

// MoveSpecParamUp moves paramName one position toward the front of its Spec.
func (p *PC) MoveSpecParamUp(category, paramName string) bool {
	spec, ok := p.components.valueAt(category)
	if !ok {
		return false
	}
	return spec.MoveUp(paramName)
}

// MoveSpecParamDown moves paramName one position toward the end of its Spec.
func (p *PC) MoveSpecParamDown(category, paramName string) bool {
	spec, ok := p.components.valueAt(category)
	if !ok {
		return false
	}
	return spec.MoveDown(paramName)
}

// HasComponent reports whether category exists.
func (p *PC) HasComponent(category string) bool {
	return p.components.Has(category)
}

// HasSpecParam reports whether category exists and holds paramName.
func (p *PC) HasSpecParam(category, paramName string) bool {
	spec, ok := p.components.Get(category)
	return ok && spec.Has(paramName)
}
