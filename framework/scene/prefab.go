package scene

// Prefab is a blueprint for a tree of objects. Each component factory runs
// once per instantiation, so every copy gets fresh components.
//
//	camera := &scene.Prefab{
//	    Name:       "camera",
//	    Components: []func() any{func() any { return &Camera{} }},
//	}
type Prefab struct {
	Name       string
	Components []func() any
	Children   []*Prefab
}

// build creates the object tree in s, under parent when given.
func (p *Prefab) build(s *Scene, parent *Object) *Object {
	var o *Object
	if parent == nil {
		o = s.NewObject(p.Name)
	} else {
		o = parent.AddChild(p.Name)
	}
	for _, factory := range p.Components {
		if factory != nil {
			o.AddComponent(factory())
		}
	}
	for _, child := range p.Children {
		if child != nil {
			child.build(s, o)
		}
	}
	return o
}
