package item

import "fmt"

// Registry holds all loaded item and equipment definitions indexed by key.
type Registry struct {
	items     map[string]*Def
	equipment map[string]*EquipmentDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		items:     make(map[string]*Def),
		equipment: make(map[string]*EquipmentDef),
	}
}

// RegisterItem adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Item(d.Key) returns (d, true); returns error if d.Key is
// already registered.
func (r *Registry) RegisterItem(d *Def) error {
	if _, exists := r.items[d.Key]; exists {
		return fmt.Errorf("item: Registry.RegisterItem: key %q already registered", d.Key)
	}
	r.items[d.Key] = d
	return nil
}

// RegisterEquipment adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Equipment(d.Key) returns (d, true); returns error if d.Key
// is already registered.
func (r *Registry) RegisterEquipment(d *EquipmentDef) error {
	if _, exists := r.equipment[d.Key]; exists {
		return fmt.Errorf("item: Registry.RegisterEquipment: key %q already registered", d.Key)
	}
	r.equipment[d.Key] = d
	return nil
}

// Item returns the Def for the given key and whether it was found.
func (r *Registry) Item(key string) (*Def, bool) {
	d, ok := r.items[key]
	return d, ok
}

// Equipment returns the EquipmentDef for the given key and whether it was
// found.
func (r *Registry) Equipment(key string) (*EquipmentDef, bool) {
	d, ok := r.equipment[key]
	return d, ok
}

// AllItems returns all registered item Defs in unspecified order.
func (r *Registry) AllItems() []*Def {
	out := make([]*Def, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	return out
}

// LoadRecords populates the registry from stored item and equipment records.
//
// Postcondition: every record parsed and registered, or the first error.
func (r *Registry) LoadRecords(items, equipment map[string][]byte) error {
	for key, data := range items {
		d, err := ParseDef(key, data)
		if err != nil {
			return err
		}
		if err := r.RegisterItem(d); err != nil {
			return err
		}
	}
	for key, data := range equipment {
		d, err := ParseEquipmentDef(key, data)
		if err != nil {
			return err
		}
		if err := r.RegisterEquipment(d); err != nil {
			return err
		}
	}
	return nil
}
