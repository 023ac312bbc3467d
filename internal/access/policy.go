// Package access decides what a user may do with a file. Listings and every
// mutating endpoint go through CanPerform so the two can never disagree.
package access

import (
	"errors"
	"slices"
	"strings"

	"github.com/YashLoriya02/storage-management/internal/model"
)

var ErrUnknownTier = errors.New("unknown access tier")

// Tier is a collaborator's position on the capability ladder. Each tier
// includes every capability of the ones below it.
type Tier int

const (
	TierNone Tier = iota
	TierRead
	TierReadWrite
	TierReadWriteShare
	// TierOwner is implicit and never stored in a grant
	TierOwner
)

var tierNames = map[Tier]string{
	TierRead:           "read",
	TierReadWrite:      "read+write",
	TierReadWriteShare: "read+write+share",
}

// Wire aliases used by older clients
var tierAliases = map[string]Tier{
	"read":             TierRead,
	"r":                TierRead,
	"read+write":       TierReadWrite,
	"wr":               TierReadWrite,
	"rw":               TierReadWrite,
	"read+write+share": TierReadWriteShare,
	"wrs":              TierReadWriteShare,
	"rws":              TierReadWriteShare,
	"all":              TierReadWriteShare,
}

func (t Tier) String() string {
	if t == TierOwner {
		return "owner"
	}

	if n, ok := tierNames[t]; ok {
		return n
	}

	return "none"
}

// Includes reports whether t grants at least the capabilities of other
func (t Tier) Includes(other Tier) bool {
	return t >= other
}

// ParseTier converts a stored or submitted tier name. Owner can't be parsed,
// it's never granted.
func ParseTier(s string) (Tier, error) {
	t, ok := tierAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return TierNone, ErrUnknownTier
	}

	return t, nil
}

type Action string

const (
	ActionView        Action = "view"
	ActionDownload    Action = "download"
	ActionViewDetails Action = "view-details"
	ActionRename      Action = "rename"
	ActionShare       Action = "share"
	ActionDelete      Action = "delete"
)

// Actions lists every action, mostly for exhaustive checks
var Actions = []Action{ActionView, ActionDownload, ActionViewDetails, ActionRename, ActionShare, ActionDelete}

// required is the single capability table: the lowest tier allowed to
// perform each action.
var required = map[Action]Tier{
	ActionView:        TierRead,
	ActionDownload:    TierRead,
	ActionViewDetails: TierRead,
	ActionRename:      TierReadWrite,
	ActionShare:       TierReadWriteShare,
	ActionDelete:      TierOwner,
}

// Requester identifies who is asking
type Requester struct {
	UserID string
	Email  string
}

// TierOf resolves the requester's tier on a file. Grants with unparseable
// tiers give no access.
func TierOf(r Requester, f *model.File) Tier {
	if f == nil {
		return TierNone
	}

	if r.UserID != "" && r.UserID == f.OwnerID {
		return TierOwner
	}

	g, ok := f.GrantFor(r.Email)
	if !ok {
		return TierNone
	}

	t, err := ParseTier(g.Access)
	if err != nil {
		return TierNone
	}

	return t
}

// CanPerform reports whether the requester may perform the action on the file
func CanPerform(r Requester, f *model.File, a Action) bool {
	need, ok := required[a]
	if !ok {
		return false
	}

	t := TierOf(r, f)
	if t == TierNone {
		return false
	}

	return t.Includes(need)
}

// Allowed returns every action the requester may perform, in Actions order
func Allowed(r Requester, f *model.File) []Action {
	out := []Action{}
	for _, a := range Actions {
		if CanPerform(r, f, a) {
			out = append(out, a)
		}
	}

	return out
}

// TierNamesAllowing returns every stored spelling of the tiers that may
// perform the action. Query builders use it to push the check into SQL.
func TierNamesAllowing(a Action) []string {
	need, ok := required[a]
	if !ok {
		return nil
	}

	names := []string{}
	for name, t := range tierAliases {
		if t.Includes(need) {
			names = append(names, name)
		}
	}

	slices.Sort(names)
	return names
}
