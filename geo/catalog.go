package geo

import (
	"sort"
	"strings"
	"unicode"
)

// Entry describes a known city.
type Entry struct {
	City City
	// Zone is IANA time zone name, e.g. "Europe/London".
	Zone string
	// Aliases are additional names city can be referenced by.
	Aliases []string
}

// Catalog is an immutable set of known cities.
type Catalog struct {
	zones map[City]string
	names map[string]City
	// longest first
	keys []string
}

// NewCatalog creates new catalog from given entries.
// Later entries override earlier ones with the same name or alias.
func NewCatalog(entries ...Entry) *Catalog {
	c := &Catalog{
		zones: make(map[City]string, len(entries)),
		names: make(map[string]City, len(entries)),
	}

	for _, e := range entries {
		c.zones[e.City] = e.Zone
		c.names[normalize(e.City.Name())] = e.City
		for _, alias := range e.Aliases {
			c.names[normalize(alias)] = e.City
		}
	}

	c.keys = make([]string, 0, len(c.names))
	for k := range c.names {
		if k == "" {
			continue
		}
		c.keys = append(c.keys, k)
	}
	sort.Slice(c.keys, func(i, j int) bool {
		if len(c.keys[i]) != len(c.keys[j]) {
			return len(c.keys[i]) > len(c.keys[j])
		}
		return c.keys[i] < c.keys[j]
	})

	return c
}

// DefaultCatalog returns catalog of well-known cities.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Entry{City: NewCity("New York", "United States"), Zone: "America/New_York", Aliases: []string{"New York City", "NYC"}},
		Entry{City: NewCity("San Francisco", "United States"), Zone: "America/Los_Angeles", Aliases: []string{"SF"}},
		Entry{City: NewCity("Los Angeles", "United States"), Zone: "America/Los_Angeles", Aliases: []string{"LA"}},
		Entry{City: NewCity("Chicago", "United States"), Zone: "America/Chicago"},
		Entry{City: NewCity("Toronto", "Canada"), Zone: "America/Toronto"},
		Entry{City: NewCity("Mexico City", "Mexico"), Zone: "America/Mexico_City"},
		Entry{City: NewCity("Sao Paulo", "Brazil"), Zone: "America/Sao_Paulo"},
		Entry{City: NewCity("London", "United Kingdom"), Zone: "Europe/London"},
		Entry{City: NewCity("Paris", "France"), Zone: "Europe/Paris"},
		Entry{City: NewCity("Berlin", "Germany"), Zone: "Europe/Berlin"},
		Entry{City: NewCity("Madrid", "Spain"), Zone: "Europe/Madrid"},
		Entry{City: NewCity("Moscow", "Russia"), Zone: "Europe/Moscow"},
		Entry{City: NewCity("Dubai", "United Arab Emirates"), Zone: "Asia/Dubai"},
		Entry{City: NewCity("Mumbai", "India"), Zone: "Asia/Kolkata", Aliases: []string{"Bombay"}},
		Entry{City: NewCity("Beijing", "China"), Zone: "Asia/Shanghai"},
		Entry{City: NewCity("Tokyo", "Japan"), Zone: "Asia/Tokyo"},
		Entry{City: NewCity("Sydney", "Australia"), Zone: "Australia/Sydney"},
	)
}

// Zone returns time zone name of given city.
func (c *Catalog) Zone(city City) (string, bool) {
	zone, ok := c.zones[city]
	return zone, ok
}

// Lookup finds city by name or alias, case-insensitive.
func (c *Catalog) Lookup(name string) (City, bool) {
	city, ok := c.names[normalize(name)]
	return city, ok
}

// Find returns the city with the longest name or alias mentioned in text.
// Matches are on word boundaries, so "San Francisco's" finds San Francisco.
func (c *Catalog) Find(text string) (City, bool) {
	padded := " " + normalize(text) + " "
	for _, k := range c.keys {
		if strings.Contains(padded, " "+k+" ") {
			return c.names[k], true
		}
	}
	return City{}, false
}

// Len returns number of cities in catalog.
func (c *Catalog) Len() int {
	return len(c.zones)
}

// normalize lower-cases s and collapses every run of non-alphanumeric runes
// into a single space.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
