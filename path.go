package formdata

import (
	"strings"

	"github.com/juju/errors"
)

// pathSegment is one step of a bracketed field name. "user[tags][]" is the
// path user, tags, [].
type pathSegment struct {
	Key   string
	Index bool
}

func parseKey(key string) ([]pathSegment, error) {
	head, rest, found := strings.Cut(key, "[")
	if !found {
		return []pathSegment{{Key: key}}, nil
	}

	var path []pathSegment
	if head != "" {
		path = append(path, pathSegment{Key: head})
	}
	for found {
		var inner string
		inner, rest, found = strings.Cut(rest, "]")
		if !found {
			return nil, errors.NotValidf("field name %q", key)
		}
		path = append(path, pathSegment{Key: inner, Index: inner == ""})

		// Anything between "]" and the next "[" is ignored.
		_, rest, found = strings.Cut(rest, "[")
	}
	return path, nil
}
