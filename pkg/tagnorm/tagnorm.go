// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package tagnorm normalizes user-entered image tags into a canonical ASCII form.
//
// # Usage
//
// Custom tags are typed free-form in the annotation drawer before being sent
// to the backend. This package handles Unicode normalization, accent removal,
// and whitespace cleanup so that "Café  Noir" and "cafe noir" collapse to the
// same stored tag.
package tagnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize converts an arbitrary Unicode tag into its canonical form.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents).
// 3. Converts to lowercase.
// 4. Collapses runs of whitespace into a single space and trims the ends.
func Normalize(tag string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, tag)

	// 2. Lowercase
	result = strings.ToLower(result)

	// 3. Collapse internal whitespace
	result = strings.Join(strings.Fields(result), " ")

	return result
}

// FacetVisible reports whether a tag belongs in the facet list: any value
// whose first rune is not an uppercase letter.
//
// Uppercase-initial values are assumed to be proper nouns handled by the
// actor facet instead; digit- and symbol-initial tags ("35mm") stay visible.
// Empty values are hidden.
func FacetVisible(tag string) bool {
	for _, r := range tag {
		return !unicode.IsUpper(r)
	}
	return false
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
