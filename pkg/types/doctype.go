// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"strings"
)

// DocType identifies a document or image format by its file extension.
type DocType string

const (
	DocUndefined DocType = ""
	DocPDF       DocType = "pdf"
	DocTIFF      DocType = "tif"
	DocWEBP      DocType = "webp"
)

// docTypeAliases maps accepted spellings to their canonical DocType.
var docTypeAliases = map[string]DocType{
	"pdf":  DocPDF,
	"tif":  DocTIFF,
	"tiff": DocTIFF,
	"webp": DocWEBP,
}

// ParseDocType returns the DocType for s, ignoring case and a leading dot.
// The second return value is false when s is not a known format.
func ParseDocType(s string) (DocType, bool) {
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	t, ok := docTypeAliases[key]
	return t, ok
}

// IsDefined reports whether t names a concrete format.
func (t DocType) IsDefined() bool {
	return t != DocUndefined
}

// IsRasterTarget reports whether a PDF can be converted into t.
func (t DocType) IsRasterTarget() bool {
	return t == DocTIFF || t == DocWEBP
}

func (t DocType) String() string {
	if t == DocUndefined {
		return "undefined"
	}
	return string(t)
}

// SupportedTargets lists the formats a PDF can be converted into, sorted.
func SupportedTargets() []DocType {
	targets := []DocType{DocTIFF, DocWEBP}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}

// SupportedTargetNames is SupportedTargets as plain strings.
func SupportedTargetNames() []string {
	targets := SupportedTargets()
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = string(t)
	}
	return names
}
