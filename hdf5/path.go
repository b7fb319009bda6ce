package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits an attribute path of the form
// /group/object@name. The object part is made absolute, so "/@a" and
// "@a" both name an attribute of the root group.
func ParseAttrPath(p string) (objectPath, attrName string, err error) {
	at := strings.LastIndexByte(p, '@')
	switch {
	case p == "":
		return "", "", fmt.Errorf("empty attribute path: %w", ErrInvalidPath)
	case at < 0:
		return "", "", fmt.Errorf("attribute path %q has no '@': %w", p, ErrInvalidPath)
	case at == len(p)-1:
		return "", "", fmt.Errorf("attribute path %q has an empty name: %w", p, ErrInvalidPath)
	}
	return "/" + strings.TrimPrefix(p[:at], "/"), p[at+1:], nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// splitPath returns the components of a slash separated path. Empty
// components are dropped.
func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
}
