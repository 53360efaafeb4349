package client

import (
    "slices"

    "wampio/pkg/wamp"
)

// PublishFilter restricts the receivers of a publication. Exclusion lists
// remove the named subscribers; eligibility lists, when non-empty, restrict
// delivery to the named subscribers. When both are present the router
// delivers only to subscribers that are eligible and not excluded. The
// publisher itself is excluded by default regardless of the filter.
type PublishFilter struct {
    Eligible         []wamp.ID
    EligibleAuthID   []string
    EligibleAuthRole []string

    Exclude         []wamp.ID
    ExcludeAuthID   []string
    ExcludeAuthRole []string
}

// Empty reports whether the filter places no constraint on delivery.
func (f *PublishFilter) Empty() bool {
    return len(f.Eligible) == 0 && len(f.EligibleAuthID) == 0 && len(f.EligibleAuthRole) == 0 &&
        len(f.Exclude) == 0 && len(f.ExcludeAuthID) == 0 && len(f.ExcludeAuthRole) == 0
}

// Options merges the filter into a copy of base and returns it. base is
// never mutated; a nil base yields a fresh dict. List values are sorted and
// de-duplicated so the emitted options are deterministic.
func (f *PublishFilter) Options(base wamp.Dict) wamp.Dict {
    options := make(wamp.Dict, len(base)+6)
    for k, v := range base {
        options[k] = v
    }

    if ids := normalizeIDs(f.Exclude); ids != nil {
        options["exclude"] = ids
    }
    if ss := normalizeStrings(f.ExcludeAuthID); ss != nil {
        options["exclude_authid"] = ss
    }
    if ss := normalizeStrings(f.ExcludeAuthRole); ss != nil {
        options["exclude_authrole"] = ss
    }

    if ids := normalizeIDs(f.Eligible); ids != nil {
        options["eligible"] = ids
    }
    if ss := normalizeStrings(f.EligibleAuthID); ss != nil {
        options["eligible_authid"] = ss
    }
    if ss := normalizeStrings(f.EligibleAuthRole); ss != nil {
        options["eligible_authrole"] = ss
    }
    return options
}

// Allows reports whether a subscriber with the given session id, authid and
// authrole would receive the publication under this filter. It mirrors the
// broker's dispatch rule and is useful for local pre-checks.
func (f *PublishFilter) Allows(session wamp.ID, authID, authRole string) bool {
    if slices.Contains(f.Exclude, session) ||
        slices.Contains(f.ExcludeAuthID, authID) ||
        slices.Contains(f.ExcludeAuthRole, authRole) {
        return false
    }
    if len(f.Eligible) > 0 && !slices.Contains(f.Eligible, session) {
        return false
    }
    if len(f.EligibleAuthID) > 0 && !slices.Contains(f.EligibleAuthID, authID) {
        return false
    }
    if len(f.EligibleAuthRole) > 0 && !slices.Contains(f.EligibleAuthRole, authRole) {
        return false
    }
    return true
}

func normalizeIDs(ids []wamp.ID) []wamp.ID {
    if len(ids) == 0 {
        return nil
    }
    out := slices.Clone(ids)
    slices.Sort(out)
    return slices.Compact(out)
}

func normalizeStrings(ss []string) []string {
    if len(ss) == 0 {
        return nil
    }
    out := slices.Clone(ss)
    slices.Sort(out)
    return slices.Compact(out)
}
