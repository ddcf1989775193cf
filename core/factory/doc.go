// Package factory provides a small generic registry of named constructors.
// Entries are selected by a type string and receive a map of raw settings,
// which they decode into typed structs with Decode or DecodeStrict.
//
// The registry builds metrics sinks from configuration and vehicles from
// untyped toll requests:
//
//	reg := factory.NewRegistry[model.Vehicle]()
//	reg.Register("car", func(conf map[string]any) (model.Vehicle, error) {
//	    var c model.Car
//	    err := factory.DecodeStrict(conf, &c)
//	    return c, err
//	})
//	v, err := reg.Create(factory.ModuleConfig{Type: "car", Conf: map[string]any{"passengers": 2}})
package factory
