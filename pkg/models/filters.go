package models

import (
	"net/url"
)

// AnimalFilters is the catalog's active filter set. Every field is a
// string and the empty string means unconstrained; the zero value is the
// documented cleared state.
type AnimalFilters struct {
	Type     string `json:"type"`
	Breed    string `json:"breed"`
	MinAge   string `json:"minAge"`
	MaxAge   string `json:"maxAge"`
	MinPrice string `json:"minPrice"`
	MaxPrice string `json:"maxPrice"`
	Location string `json:"location"`
	Search   string `json:"search"`
}

// FilterPatch is a partial filter update. Nil fields leave the current
// value untouched, so callers only name the keys they mean to change.
type FilterPatch struct {
	Type     *string
	Breed    *string
	MinAge   *string
	MaxAge   *string
	MinPrice *string
	MaxPrice *string
	Location *string
	Search   *string
}

// String is a convenience for building a FilterPatch literal.
func String(v string) *string { return &v }

// Merge applies the patch and returns the resulting filter set.
// Unspecified keys keep their prior values.
func (f AnimalFilters) Merge(patch FilterPatch) AnimalFilters {
	if patch.Type != nil {
		f.Type = *patch.Type
	}
	if patch.Breed != nil {
		f.Breed = *patch.Breed
	}
	if patch.MinAge != nil {
		f.MinAge = *patch.MinAge
	}
	if patch.MaxAge != nil {
		f.MaxAge = *patch.MaxAge
	}
	if patch.MinPrice != nil {
		f.MinPrice = *patch.MinPrice
	}
	if patch.MaxPrice != nil {
		f.MaxPrice = *patch.MaxPrice
	}
	if patch.Location != nil {
		f.Location = *patch.Location
	}
	if patch.Search != nil {
		f.Search = *patch.Search
	}
	return f
}

// Query serializes the constrained keys as URL query parameters in the
// shape GET /animals expects.
func (f AnimalFilters) Query() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("type", f.Type)
	set("breed", f.Breed)
	set("minAge", f.MinAge)
	set("maxAge", f.MaxAge)
	set("minPrice", f.MinPrice)
	set("maxPrice", f.MaxPrice)
	set("location", f.Location)
	set("search", f.Search)
	return values
}

// IsZero reports whether every key is unconstrained.
func (f AnimalFilters) IsZero() bool {
	return f == AnimalFilters{}
}
