package access

import (
	"testing"

	"github.com/YashLoriya02/storage-management/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileSharedWith(email, tier string) *model.File {
	return &model.File{
		ID:      1,
		OwnerID: "owner",
		Grants:  []model.Grant{{Email: email, Access: tier}},
	}
}

func TestCanPerformTierTable(t *testing.T) {
	want := map[string]map[Action]bool{
		"read": {
			ActionView: true, ActionDownload: true, ActionViewDetails: true,
			ActionRename: false, ActionShare: false, ActionDelete: false,
		},
		"read+write": {
			ActionView: true, ActionDownload: true, ActionViewDetails: true,
			ActionRename: true, ActionShare: false, ActionDelete: false,
		},
		"read+write+share": {
			ActionView: true, ActionDownload: true, ActionViewDetails: true,
			ActionRename: true, ActionShare: true, ActionDelete: false,
		},
	}

	requester := Requester{UserID: "u2", Email: "b@example.com"}

	for tier, actions := range want {
		require.Len(t, actions, len(Actions), "table for %s must cover every action", tier)

		f := fileSharedWith("b@example.com", tier)
		for _, a := range Actions {
			t.Run(tier+"/"+string(a), func(t *testing.T) {
				assert.Equal(t, actions[a], CanPerform(requester, f, a))
			})
		}
	}
}

func TestOwnerCanDoEverything(t *testing.T) {
	f := fileSharedWith("b@example.com", "read")
	owner := Requester{UserID: "owner", Email: "owner@example.com"}

	for _, a := range Actions {
		assert.True(t, CanPerform(owner, f, a), "owner denied %s", a)
	}
	assert.Equal(t, Actions, Allowed(owner, f))
}

func TestStrangerCanDoNothing(t *testing.T) {
	f := fileSharedWith("b@example.com", "read+write+share")
	stranger := Requester{UserID: "u3", Email: "c@example.com"}

	for _, a := range Actions {
		assert.False(t, CanPerform(stranger, f, a), "stranger allowed %s", a)
	}
	assert.Empty(t, Allowed(stranger, f))
}

func TestGrantEmailIsCaseInsensitive(t *testing.T) {
	f := fileSharedWith("b@example.com", "read")
	r := Requester{UserID: "u2", Email: "  B@Example.COM "}

	assert.True(t, CanPerform(r, f, ActionView))
}

func TestEmptyIdentityNeverMatches(t *testing.T) {
	f := &model.File{OwnerID: "owner", Grants: []model.Grant{{Email: "", Access: "read"}}}

	assert.False(t, CanPerform(Requester{}, f, ActionView))
	assert.False(t, CanPerform(Requester{}, nil, ActionView))
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"read", TierRead, false},
		{"r", TierRead, false},
		{"wr", TierReadWrite, false},
		{"READ+WRITE", TierReadWrite, false},
		{"wrs", TierReadWriteShare, false},
		{"all", TierReadWriteShare, false},
		{"owner", TierNone, true},
		{"", TierNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownTier)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownStoredTierGivesNoAccess(t *testing.T) {
	f := fileSharedWith("b@example.com", "admin")
	assert.False(t, CanPerform(Requester{Email: "b@example.com"}, f, ActionView))
}

func TestTierOrdering(t *testing.T) {
	assert.True(t, TierReadWriteShare.Includes(TierRead))
	assert.True(t, TierReadWrite.Includes(TierReadWrite))
	assert.False(t, TierRead.Includes(TierReadWrite))
	assert.True(t, TierOwner.Includes(TierReadWriteShare))
	assert.Equal(t, "read+write", TierReadWrite.String())
}

func TestTierNamesAllowing(t *testing.T) {
	assert.Equal(t, []string{"all", "read+write+share", "rws", "wrs"}, TierNamesAllowing(ActionShare))
	assert.Contains(t, TierNamesAllowing(ActionView), "r")
	assert.Len(t, TierNamesAllowing(ActionView), len(tierAliases))
	assert.Empty(t, TierNamesAllowing(ActionDelete))
}
