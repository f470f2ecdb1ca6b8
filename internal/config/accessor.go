package config

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Dot-paths address Config fields by their JSON names, e.g. "types.placement",
// "scan.extensions.0" or "types.typeMap.date".

// Entry is one leaf of the config as shown by `tsfix config list`.
type Entry struct {
	Path  string
	Value any
}

// GetByPath returns the value at path.
func GetByPath(cfg *Config, path string) (any, error) {
	v, err := resolve(reflect.ValueOf(cfg).Elem(), path)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// SetByPath parses value according to the field's type, sets it, and
// validates the result. cfg is left unchanged when anything fails.
// Setting a typeMap entry to "" removes it.
func SetByPath(cfg *Config, path, value string) error {
	parent, key, ok := cutLast(path)
	if !ok {
		return fmt.Errorf("%s is a section; set one of its keys", path)
	}

	next := *cfg
	next.Types.TypeMap = maps.Clone(cfg.Types.TypeMap)
	next.Scan.Extensions = slices.Clone(cfg.Scan.Extensions)
	next.Scan.Ignore = slices.Clone(cfg.Scan.Ignore)

	pv, err := resolve(reflect.ValueOf(&next).Elem(), parent)
	if err != nil {
		return err
	}

	if pv.Kind() == reflect.Map {
		if pv.IsNil() {
			pv.Set(reflect.MakeMap(pv.Type()))
		}
		if value == "" {
			pv.SetMapIndex(reflect.ValueOf(key), reflect.Value{})
		} else {
			pv.SetMapIndex(reflect.ValueOf(key), reflect.ValueOf(value))
		}
	} else {
		fv, err := resolve(pv, key)
		if err != nil {
			return fmt.Errorf("unknown config key: %s", path)
		}
		if err := assign(fv, value); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := Validate(&next); err != nil {
		return err
	}
	*cfg = next
	return nil
}

// ListPaths returns every leaf in section order (general, addtool, types,
// scan, journal); typeMap entries are sorted by key.
func ListPaths(cfg *Config) []Entry {
	var out []Entry
	collect("", reflect.ValueOf(cfg).Elem(), &out)
	return out
}

func collect(prefix string, v reflect.Value, out *[]Entry) {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			collect(join(prefix, jsonName(t.Field(i))), v.Field(i), out)
		}
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			collect(join(prefix, k.String()), v.MapIndex(k), out)
		}
	default:
		*out = append(*out, Entry{Path: prefix, Value: v.Interface()})
	}
}

func resolve(v reflect.Value, path string) (reflect.Value, error) {
	parts := strings.Split(path, ".")
	for i, key := range parts {
		switch v.Kind() {
		case reflect.Struct:
			f, ok := fieldByJSONName(v, key)
			if !ok {
				return reflect.Value{}, fmt.Errorf("unknown config key: %s", strings.Join(parts[:i+1], "."))
			}
			v = f
		case reflect.Map:
			mv := v.MapIndex(reflect.ValueOf(key))
			if !mv.IsValid() {
				return reflect.Value{}, fmt.Errorf("key not found: %s", path)
			}
			v = mv
		case reflect.Slice:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= v.Len() {
				return reflect.Value{}, fmt.Errorf("invalid index %q in %s", key, path)
			}
			v = v.Index(idx)
		default:
			return reflect.Value{}, fmt.Errorf("%s is a %s, cannot index %q", strings.Join(parts[:i], "."), v.Kind(), key)
		}
	}
	return v, nil
}

func assign(fv reflect.Value, s string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", s)
		}
		fv.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", s)
		}
		fv.SetInt(int64(n))
	case reflect.Slice:
		// comma-separated: ".ts,.tsx"
		var items []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("is a section; set one of its keys")
	}
	return nil
}

func fieldByJSONName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if jsonName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

func cutLast(path string) (parent, key string, ok bool) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
