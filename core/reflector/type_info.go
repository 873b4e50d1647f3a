// Package reflector names Go types for logs, metrics and remote handler
// registration. Lookups are cached per reflect.Type.
package reflector

import (
	"reflect"
	"sync"
)

// maxCacheSize bounds the cache. Programs rarely have this many message
// types; when it is reached the cache starts over.
const maxCacheSize = 1024

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo describes a named type. Pointers are always unwrapped, so T and
// *T share one TypeInfo.
type TypeInfo struct {
	Name string       // short form: "pkg.TypeName"
	Path string       // fully qualified: "module/path/pkg.TypeName"
	Type reflect.Type // the element type, never a pointer
}

// TypeInfoOf returns TypeInfo for the dynamic type of x.
func TypeInfoOf(x any) TypeInfo {
	return TypeInfoForType(reflect.TypeOf(x))
}

// TypeInfoFor returns TypeInfo for T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeFor[T]())
}

// TypeInfoForType returns TypeInfo for t. A nil t yields the zero TypeInfo.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	ti = build(t)

	muCache.Lock()
	defer muCache.Unlock()
	if existing, ok := cache[t]; ok {
		return existing
	}
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]TypeInfo)
	}
	cache[t] = ti
	return ti
}

func build(t reflect.Type) TypeInfo {
	name := t.Name()
	if name == "" {
		// unnamed: func, map, struct literal, ...
		s := t.String()
		return TypeInfo{Name: s, Path: s, Type: t}
	}

	pkg := t.PkgPath()
	if pkg == "" {
		return TypeInfo{Name: name, Path: name, Type: t}
	}

	short := pkg
	for i := len(pkg) - 1; i >= 0; i-- {
		if pkg[i] == '/' {
			short = pkg[i+1:]
			break
		}
	}
	return TypeInfo{
		Name: short + "." + name,
		Path: pkg + "." + name,
		Type: t,
	}
}
