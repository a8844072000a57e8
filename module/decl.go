package module

import "github.com/phlowdotdev/phlow/value"

// Decl is one entry of a script's modules: array — the declaration telling
// the runtime which module plug-in to spawn and register before the
// pipeline accepts requests. Grounded on spec.md §6's ModuleDecl and
// original_source/phlow-sdk/src/structs/module_decl.rs's field set.
type Decl struct {
	Module     string
	Name       string
	Version    string
	Repository string
	LocalPath  string
	With       value.Value
}

// ParseDecls reads a script document's modules: value (an array of
// ModuleDecl objects) into a slice of Decl. A non-array/absent modules
// value yields an empty slice, not an error, since modules: is optional.
// Name defaults to Module, the name-resolution rule spec.md §4.6 states for
// the module bus ("modules are addressed by the name field ..., defaulting
// to the module field if absent").
func ParseDecls(modules value.Value) ([]Decl, error) {
	if modules.Kind() != value.KindArray {
		return nil, nil
	}

	decls := make([]Decl, 0, len(modules.Arr()))
	for _, item := range modules.Arr() {
		if item.Kind() != value.KindObject {
			continue
		}
		obj := item.Obj()

		d := Decl{With: value.Null()}
		if v, ok := obj.Get("module"); ok {
			d.Module = v.Str()
		}
		if v, ok := obj.Get("name"); ok {
			d.Name = v.Str()
		}
		if d.Name == "" {
			d.Name = d.Module
		}
		if v, ok := obj.Get("version"); ok {
			d.Version = v.Str()
		}
		if v, ok := obj.Get("repository"); ok {
			d.Repository = v.Str()
		}
		if v, ok := obj.Get("local_path"); ok {
			d.LocalPath = v.Str()
		}
		if v, ok := obj.Get("with"); ok {
			d.With = v
		}
		decls = append(decls, d)
	}
	return decls, nil
}
