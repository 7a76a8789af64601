package models

import "strings"

// Role tags. A user's roles field is a set of these, not a single value:
// a moderator scoped to food causes carries both RoleModerator and
// CategoryFood.
const (
	RoleUser       = "User"
	RoleModerator  = "Moderator"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "Super Admin"
	RoleVendor     = "Vendor"
	RoleVolunteer  = "Volunteer"
)

// Category tags double as cause categories and moderator scoping tags.
// CategorySharedServices is the catch-all: a moderator holding it sees
// causes in every category.
const (
	CategoryFood           = "Food"
	CategoryEducation      = "Education"
	CategoryHealth         = "Health"
	CategoryHumanRight     = "Human Right"
	CategorySharedServices = "Shared Services"
)

// Categories lists every valid cause category, catch-all excluded.
var Categories = []string{
	CategoryFood,
	CategoryEducation,
	CategoryHealth,
	CategoryHumanRight,
}

// IsValidCategory reports whether name is a recognized cause category.
func IsValidCategory(name string) bool {
	for _, c := range Categories {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// RoleSet is the capability bag backing every authorization predicate.
// Membership tests are case-insensitive so stored tags survive casing drift.
type RoleSet []string

// Has reports whether the set contains tag.
func (rs RoleSet) Has(tag string) bool {
	for _, t := range rs {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(tag)) {
			return true
		}
	}
	return false
}

// HasAny reports whether the set contains at least one of tags.
func (rs RoleSet) HasAny(tags ...string) bool {
	for _, tag := range tags {
		if rs.Has(tag) {
			return true
		}
	}
	return false
}

// HasAll reports whether the set contains every one of tags.
func (rs RoleSet) HasAll(tags ...string) bool {
	for _, tag := range tags {
		if !rs.Has(tag) {
			return false
		}
	}
	return true
}

// Add returns the set with tag added, without duplicating an existing tag.
func (rs RoleSet) Add(tag string) RoleSet {
	if rs.Has(tag) {
		return rs
	}
	return append(rs, tag)
}

// CategoryTags returns the category tags the set carries, in declaration
// order. CategorySharedServices is included when present.
func (rs RoleSet) CategoryTags() []string {
	var tags []string
	for _, c := range Categories {
		if rs.Has(c) {
			tags = append(tags, c)
		}
	}
	if rs.Has(CategorySharedServices) {
		tags = append(tags, CategorySharedServices)
	}
	return tags
}
