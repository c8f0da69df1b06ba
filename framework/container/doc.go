// Package container provides the binding table that backs every scope.
//
// # Overview
//
// A Container maps a Key (a reflect.Type plus an optional string id) to
// either a pre-built instance or a template that is instantiated lazily.
// Containers know nothing about other containers: chaining them into a
// lookup order is the job of package resolver.
//
// # Bindings
//
//	c := container.New()
//
//	// Instance
//	c.Bind(container.KeyOf[Clock](), realClock)
//	container.Bind[Clock](c, realClock) // same thing
//
//	// Qualified instance, never collides with the unqualified one
//	container.BindID[string](c, "greeting", "hello")
//
//	// Template, materialized on first Get through the container's Host
//	c.BindTemplate(container.KeyOf[*Camera](), cameraPrefab)
//
// # Resolving
//
//	v, ok := c.Get(container.KeyOf[Clock]())
//	clock, ok := container.Get[Clock](c)
//
// # Templates
//
// On the first Get of a template binding the Host instantiates the
// blueprint, then the created object is searched depth first (root
// included, through Composite) for the first value assignable to the key's
// type. A match is memoized; no match destroys the object and Get reports
// false. The template itself stays bound.
//
// # Nil and destroyed values
//
// Binding nil, a typed nil, or a value whose Destroyed() reports true is
// rejected with ErrBindRejected and leaves the table untouched.
package container
