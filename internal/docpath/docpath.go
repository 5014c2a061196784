// Package docpath walks decoded JSON trees with declarative paths.
//
// Documents scraped from third-party pages are decoded into the generic
// map[string]any / []any form and read through a single fallible primitive, [Get],
// instead of one struct per nesting level. A [Path] is an ordered list of steps,
// each either an object key or an array index.
package docpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPathNotFound is returned when a step of a path cannot be resolved.
var ErrPathNotFound = errors.New("path not found")

// Last is an index step selecting the final element of an array.
const Last = -1

// Step is one hop through a document: a key for objects, an index for arrays.
type Step struct {
	Key   string
	Index int
	isKey bool
}

// Key returns a step into an object.
func Key(k string) Step { return Step{Key: k, isKey: true} }

// Index returns a step into an array. [Last] selects the final element.
func Index(i int) Step { return Step{Index: i} }

func (s Step) String() string {
	if s.isKey {
		return s.Key
	}
	if s.Index == Last {
		return ">"
	}
	return strconv.Itoa(s.Index)
}

// Path is an ordered sequence of steps.
type Path []Step

// Parse builds a Path from dotted notation.
//
// Numeric segments become index steps and ">" means [Last], so
// "contents.tabs.0.items.>" walks two keys, index 0, a key, then the last element.
func Parse(dotted string) Path {
	if dotted == "" {
		return Path{}
	}
	segments := strings.Split(dotted, ".")
	path := make(Path, 0, len(segments))
	for _, seg := range segments {
		if seg == ">" {
			path = append(path, Index(Last))
			continue
		}
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 {
			path = append(path, Index(i))
			continue
		}
		path = append(path, Key(seg))
	}
	return path
}

// Join appends more steps to p, returning a new Path.
func (p Path) Join(more ...Step) Path {
	out := make(Path, 0, len(p)+len(more))
	out = append(out, p...)
	return append(out, more...)
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Get resolves path against tree.
//
// The error wraps [ErrPathNotFound] and names the first step that failed.
func Get(tree any, path Path) (any, error) {
	node := tree
	for i, step := range path {
		next, ok := walk(node, step)
		if !ok {
			return nil, fmt.Errorf("%w: %s (at step %d %q)", ErrPathNotFound, path, i, step)
		}
		node = next
	}
	return node, nil
}

// Lookup is the non-failing form of [Get] for optional fields.
func Lookup(tree any, path Path) (any, bool) {
	v, err := Get(tree, path)
	return v, err == nil
}

// GetArray resolves path and requires the value to be an array.
func GetArray(tree any, path Path) ([]any, error) {
	v, err := Get(tree, path)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, not an array", ErrPathNotFound, path, v)
	}
	return arr, nil
}

// GetString resolves path and requires the value to be a string.
func GetString(tree any, path Path) (string, error) {
	v, err := Get(tree, path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, not a string", ErrPathNotFound, path, v)
	}
	return s, nil
}

// LookupString is the non-failing form of [GetString].
func LookupString(tree any, path Path) (string, bool) {
	s, err := GetString(tree, path)
	return s, err == nil
}

func walk(node any, step Step) (any, bool) {
	if step.isKey {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[step.Key]
		if !ok || v == nil {
			return nil, false
		}
		return v, true
	}

	arr, ok := node.([]any)
	if !ok || len(arr) == 0 {
		return nil, false
	}
	i := step.Index
	if i == Last {
		i = len(arr) - 1
	}
	if i < 0 || i >= len(arr) || arr[i] == nil {
		return nil, false
	}
	return arr[i], true
}
