package formdata

import (
	"reflect"
	"strings"
	"sync"
)

// fieldTagCache maps a struct's reflect.Type to its parsed []*fieldTag. It is
// shared by the encoder and the binder.
var fieldTagCache sync.Map

type fieldTag struct {
	Name   string
	Omit   bool
	Ignore bool
}

func tags(v reflect.Value) []*fieldTag {
	t := reflect.Indirect(v).Type()
	if t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := fieldTagCache.Load(t); ok {
		return cached.([]*fieldTag)
	}

	parsed := make([]*fieldTag, t.NumField())
	for i := range parsed {
		f := t.Field(i)
		tag := parseTag(f.Tag.Get("form"))
		if !f.IsExported() {
			tag.Ignore = true
		}
		if !tag.Ignore && tag.Name == "" {
			tag.Name = f.Name
		}
		parsed[i] = tag
	}

	fieldTagCache.Store(t, parsed)
	return parsed
}

// parseTag reads `form:"name,omitempty"`. A name of "-" or the "ignore" flag
// skips the field.
func parseTag(s string) *fieldTag {
	name, flags, _ := strings.Cut(strings.TrimSpace(s), ",")

	t := &fieldTag{Name: strings.TrimSpace(name)}
	if t.Name == "-" {
		return &fieldTag{Ignore: true}
	}
	for _, flag := range strings.Split(flags, ",") {
		switch strings.TrimSpace(flag) {
		case "omitempty":
			t.Omit = true
		case "ignore":
			t.Ignore = true
		}
	}
	return t
}
