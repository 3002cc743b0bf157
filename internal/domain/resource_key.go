package domain

import (
	"regexp"
	"strings"
)

const (
	SpecialtyPersonal = "personal"

	legacySpecialtyGeneral = "general"
	personalKeyPrefix      = "personal::"
	sharedActorKey         = "shared"
	maxSlugTokens          = 3
)

var slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeSpecialty lower-cases a specialty, joins its first three alphanumeric
// tokens with "-" and collapses the legacy "general" alias into "personal".
func NormalizeSpecialty(specialty string) string {
	raw := slugSeparator.ReplaceAllString(strings.ToLower(specialty), " ")
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return SpecialtyPersonal
	}
	if len(parts) > maxSlugTokens {
		parts = parts[:maxSlugTokens]
	}

	slug := strings.Join(parts, "-")
	if slug == legacySpecialtyGeneral {
		return SpecialtyPersonal
	}

	return slug
}

func NormalizeActor(actor string) string {
	key := strings.ToLower(strings.TrimSpace(actor))
	if key == "" {
		return sharedActorKey
	}
	return key
}

func IsPersonal(specialty string) bool {
	return NormalizeSpecialty(specialty) == SpecialtyPersonal
}

// ResourceKey returns the storage key of the resource gated by specialty.
// Personal resources are scoped to the actor, every other specialty is shared.
func ResourceKey(specialty, actor string) string {
	slug := NormalizeSpecialty(specialty)
	if slug == SpecialtyPersonal {
		return personalKeyPrefix + NormalizeActor(actor)
	}
	return slug
}

// SameActor compares two actor ids the way ownership checks do. Empty ids never match.
func SameActor(a, b string) bool {
	left := strings.TrimSpace(a)
	right := strings.TrimSpace(b)
	if left == "" || right == "" {
		return false
	}
	return strings.EqualFold(left, right)
}

func IsUnclaimedOwner(owner string) bool {
	switch strings.ToLower(strings.TrimSpace(owner)) {
	case "", "local_user", "unknown":
		return true
	default:
		return false
	}
}
