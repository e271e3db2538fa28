package geo

import (
	"unicode/utf16"
)

// City is an immutable city value.
//
// An empty name or country means the field is absent. Two cities are equal
// iff both fields are equal, so City can be used as a map key directly.
type City struct {
	name    string
	country string
}

// NewCity creates new city value.
func NewCity(name, country string) City {
	return City{
		name:    name,
		country: country,
	}
}

// Name returns city name.
func (c City) Name() string {
	return c.name
}

// Country returns city country.
func (c City) Country() string {
	return c.country
}

// Equal reports whether c and other have the same name and country.
func (c City) Equal(other City) bool {
	return c.name == other.name && c.country == other.country
}

// Hash returns 32-bit hash of city fields. Equal cities have equal hashes.
func (c City) Hash() int32 {
	result := stringHash(c.name)
	result = 31*result + stringHash(c.country)
	return result
}

func (c City) String() string {
	switch {
	case c.country == "":
		return c.name
	case c.name == "":
		return c.country
	default:
		return c.name + ", " + c.country
	}
}

// stringHash is the polynomial hash s[0]*31^(n-1) + ... + s[n-1] over UTF-16
// code units. Absent (empty) strings hash to 0.
func stringHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}
