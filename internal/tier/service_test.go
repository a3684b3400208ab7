// AngelaMos | 2026
// service_test.go

package tier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

type fakeRepository struct {
	skills     []SkillType
	tiers      []Tier
	userSkills map[string]map[string]*UserSkill
	ranked     map[string][]RankedUser
	counts     []TierCount
	migrated   int64
}

func newFakeRepository() *fakeRepository {
	f := &fakeRepository{
		userSkills: make(map[string]map[string]*UserSkill),
		ranked:     make(map[string][]RankedUser),
	}

	names := map[string]string{
		"npot": "Nether Pot", "uhc": "Ultra Hardcore", "cpvp": "Crystal PVP",
		"sword": "Sword Combat", "axe": "Axe Combat", "smp": "Survival Multiplayer",
	}
	// Catalog order is alphabetical by display name.
	for _, code := range []string{"axe", "cpvp", "npot", "smp", "sword", "uhc"} {
		f.skills = append(f.skills, SkillType{
			ID:   "skill-" + code,
			Code: code,
			Name: names[code],
		})
	}

	for _, cat := range []string{CategoryLower, CategoryHigher} {
		for level := 1; level <= 5; level++ {
			name := cat + string(rune('0'+level))
			f.tiers = append(f.tiers, Tier{
				ID:       "tier-" + name,
				Name:     name,
				Category: cat,
				Level:    level,
			})
		}
	}

	return f
}

func (f *fakeRepository) ListSkillTypes(context.Context) ([]SkillType, error) {
	return f.skills, nil
}

func (f *fakeRepository) ListTiers(context.Context) ([]Tier, error) {
	return f.tiers, nil
}

func (f *fakeRepository) GetSkillTypeByCode(
	_ context.Context,
	code string,
) (*SkillType, error) {
	for i := range f.skills {
		if f.skills[i].Code == code {
			return &f.skills[i], nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepository) GetTierByName(
	_ context.Context,
	name string,
) (*Tier, error) {
	for i := range f.tiers {
		if f.tiers[i].Name == name {
			return &f.tiers[i], nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepository) ListUserSkills(
	_ context.Context,
	userID string,
) ([]UserSkill, error) {
	var out []UserSkill
	for _, us := range f.userSkills[userID] {
		out = append(out, *us)
	}
	return out, nil
}

func (f *fakeRepository) UpsertUserSkill(_ context.Context, us *UserSkill) error {
	if f.userSkills[us.UserID] == nil {
		f.userSkills[us.UserID] = make(map[string]*UserSkill)
	}
	if existing, ok := f.userSkills[us.UserID][us.SkillTypeID]; ok {
		existing.TierID = us.TierID
		existing.Notes = us.Notes
		*us = *existing
		return nil
	}
	cp := *us
	f.userSkills[us.UserID][us.SkillTypeID] = &cp
	return nil
}

func (f *fakeRepository) ListRanked(
	_ context.Context,
	skillTypeID string,
) ([]RankedUser, error) {
	return append([]RankedUser(nil), f.ranked[skillTypeID]...), nil
}

func (f *fakeRepository) TierCounts(context.Context) ([]TierCount, error) {
	return f.counts, nil
}

func (f *fakeRepository) MigrateLegacyTiers(context.Context) (int64, error) {
	return f.migrated, nil
}

func (f *fakeRepository) setTier(userID, skillCode, tierName string) {
	tierID := "tier-" + tierName
	if f.userSkills[userID] == nil {
		f.userSkills[userID] = make(map[string]*UserSkill)
	}
	f.userSkills[userID]["skill-"+skillCode] = &UserSkill{
		ID:          userID + "-" + skillCode,
		UserID:      userID,
		SkillTypeID: "skill-" + skillCode,
		TierID:      &tierID,
	}
}

func TestTierOrderValueTotalOrder(t *testing.T) {
	f := newFakeRepository()

	prev := 0
	for _, tr := range f.tiers {
		assert.Greater(t, tr.OrderValue(), prev, "tier %s out of order", tr.Name)
		prev = tr.OrderValue()
	}

	ht1 := Tier{Category: CategoryHigher, Level: 1}
	lt5 := Tier{Category: CategoryLower, Level: 5}
	assert.Greater(t, ht1.OrderValue(), lt5.OrderValue())
}

func TestGetUserSkillsCoversWholeCatalog(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)

	entries, err := svc.GetUserSkills(context.Background(), "nobody")
	require.NoError(t, err)
	require.Len(t, entries, len(f.skills))
	for _, e := range entries {
		assert.Nil(t, e.Tier)
		assert.Empty(t, e.Notes)
	}

	f.setTier("u1", "sword", "HT2")
	entries, err = svc.GetUserSkills(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, len(f.skills))

	ranked := 0
	for _, e := range entries {
		if e.Tier != nil {
			ranked++
			assert.Equal(t, "sword", e.Skill.Code)
			assert.Equal(t, "HT2", e.Tier.Name)
		}
	}
	assert.Equal(t, 1, ranked)
}

func TestSetUserSkillClearIsIdempotent(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)
	ctx := context.Background()

	_, err := svc.SetUserSkill(ctx, "u1", "axe", "LT4", "grinding")
	require.NoError(t, err)

	for _, notes := range []string{"first clear", "second clear"} {
		us, err := svc.SetUserSkill(ctx, "u1", "axe", "", notes)
		require.NoError(t, err)
		assert.Nil(t, us.TierID)
		assert.Equal(t, notes, us.Notes)
	}

	// The row survives clearing; only the tier is gone.
	rows, err := f.ListUserSkills(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].TierID)
}

func TestSetUserSkillRejectsUnknownCodes(t *testing.T) {
	svc := NewService(newFakeRepository(), 10)
	ctx := context.Background()

	_, err := svc.SetUserSkill(ctx, "u1", "bowpvp", "LT1", "")
	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN_SKILL", appErr.Code)

	_, err = svc.SetUserSkill(ctx, "u1", "axe", "HT9", "")
	appErr, ok = core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN_TIER", appErr.Code)
}

func TestBulkSetUserSkills(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)

	outcomes, err := svc.BulkSetUserSkills(context.Background(), "u1", map[string]string{
		"sword":  " ht3 ",
		"axe":    "not-a-tier",
		"bowpvp": "LT2",
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	byCode := make(map[string]BulkOutcome)
	for _, o := range outcomes {
		byCode[o.SkillCode] = o
	}

	assert.Equal(t, "HT3", byCode["sword"].Tier)
	assert.Empty(t, byCode["sword"].Error)

	assert.True(t, byCode["axe"].Cleared)
	assert.Empty(t, byCode["axe"].Error)

	assert.NotEmpty(t, byCode["bowpvp"].Error)

	// The bad code did not block the good ones.
	rows, err := f.ListUserSkills(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLeaderboardOrderingAndTieBreak(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)

	f.ranked["skill-sword"] = []RankedUser{
		{UserID: "b", Username: "bob", TierName: "LT5", TierCategory: "LT", TierLevel: 5},
		{UserID: "c", Username: "carol", TierName: "HT2", TierCategory: "HT", TierLevel: 2},
		{UserID: "a", Username: "alice", TierName: "HT2", TierCategory: "HT", TierLevel: 2},
	}

	board, err := svc.GetSkillLeaderboard(context.Background(), "sword", 0)
	require.NoError(t, err)
	require.Len(t, board.Entries, 3)

	assert.Equal(t, "alice", board.Entries[0].Username)
	assert.Equal(t, "carol", board.Entries[1].Username)
	assert.Equal(t, "bob", board.Entries[2].Username)
}

func TestLeaderboardLimit(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 2)

	f.ranked["skill-axe"] = []RankedUser{
		{UserID: "a", Username: "alice", TierName: "HT1", TierCategory: "HT", TierLevel: 1},
		{UserID: "b", Username: "bob", TierName: "LT3", TierCategory: "LT", TierLevel: 3},
		{UserID: "c", Username: "carol", TierName: "LT1", TierCategory: "LT", TierLevel: 1},
	}

	board, err := svc.GetSkillLeaderboard(context.Background(), "axe", 0)
	require.NoError(t, err)
	assert.Len(t, board.Entries, 2)
}

func TestUserTierRankWorkedExample(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)

	f.ranked["skill-axe"] = []RankedUser{
		{UserID: "a", Username: "alice", TierName: "HT1", TierCategory: "HT", TierLevel: 1},
		{UserID: "b", Username: "bob", TierName: "HT1", TierCategory: "HT", TierLevel: 1},
		{UserID: "c", Username: "carol", TierName: "LT3", TierCategory: "LT", TierLevel: 3},
		{UserID: "d", Username: "dave", TierName: "LT1", TierCategory: "LT", TierLevel: 1},
	}

	rank, err := svc.GetUserTierRank(context.Background(), "a", "axe")
	require.NoError(t, err)
	require.NotNil(t, rank)

	assert.Equal(t, "HT1", rank.TierName)
	assert.Equal(t, 2, rank.Rank)
	assert.Equal(t, 4, rank.Total)
	assert.Equal(t, 50, rank.Percentile)

	bottom, err := svc.GetUserTierRank(context.Background(), "d", "axe")
	require.NoError(t, err)
	require.NotNil(t, bottom)
	assert.Equal(t, 4, bottom.Rank)
	assert.Equal(t, 0, bottom.Percentile)
}

func TestUserTierRankPercentileRoundsHalfUp(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)

	// Rank 3 of 8 puts the exact percentile at 62.5; halves round up.
	f.ranked["skill-axe"] = []RankedUser{
		{UserID: "a", Username: "alice", TierName: "HT3", TierCategory: "HT", TierLevel: 3},
		{UserID: "b", Username: "bob", TierName: "HT3", TierCategory: "HT", TierLevel: 3},
		{UserID: "c", Username: "carol", TierName: "HT2", TierCategory: "HT", TierLevel: 2},
		{UserID: "d", Username: "dave", TierName: "LT5", TierCategory: "LT", TierLevel: 5},
		{UserID: "e", Username: "erin", TierName: "LT4", TierCategory: "LT", TierLevel: 4},
		{UserID: "f", Username: "frank", TierName: "LT3", TierCategory: "LT", TierLevel: 3},
		{UserID: "g", Username: "grace", TierName: "LT2", TierCategory: "LT", TierLevel: 2},
		{UserID: "h", Username: "heidi", TierName: "LT1", TierCategory: "LT", TierLevel: 1},
	}

	rank, err := svc.GetUserTierRank(context.Background(), "c", "axe")
	require.NoError(t, err)
	require.NotNil(t, rank)

	assert.Equal(t, 3, rank.Rank)
	assert.Equal(t, 8, rank.Total)
	assert.Equal(t, 63, rank.Percentile)
}

func TestUserTierRankUnranked(t *testing.T) {
	svc := NewService(newFakeRepository(), 10)

	rank, err := svc.GetUserTierRank(context.Background(), "ghost", "axe")
	require.NoError(t, err)
	assert.Nil(t, rank)
}

func TestRecommendationsAdvanceAndStartRelated(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)

	f.setTier("u1", "npot", "LT3")

	recs, err := svc.GetTierRecommendations(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "npot", recs[0].SkillCode)
	assert.Equal(t, "LT4", recs[0].RecommendedTier)

	assert.Equal(t, "cpvp", recs[1].SkillCode)
	assert.Equal(t, "LT1", recs[1].RecommendedTier)

	assert.Equal(t, "smp", recs[2].SkillCode)
	assert.Equal(t, "LT1", recs[2].RecommendedTier)
}

func TestRecommendationsLaggingRelatedAdvancesOneStep(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)

	// HT2 anchor (order 7); cpvp at LT5 (order 5) trails by two, smp at
	// HT1 (order 6) trails by only one and must not be suggested.
	f.setTier("u1", "npot", "HT2")
	f.setTier("u1", "cpvp", "LT5")
	f.setTier("u1", "smp", "HT1")

	recs, err := svc.GetTierRecommendations(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "npot", recs[0].SkillCode)
	assert.Equal(t, "HT3", recs[0].RecommendedTier)

	assert.Equal(t, "cpvp", recs[1].SkillCode)
	assert.Equal(t, "HT1", recs[1].RecommendedTier)

	// Third entry comes from the cpvp anchor, not from smp.
	assert.Equal(t, "cpvp", recs[2].SkillCode)
	assert.Equal(t, "HT1", recs[2].RecommendedTier)
}

func TestRecommendationsTopTierHasNoSelfAdvance(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)

	f.setTier("u1", "uhc", "HT5")

	recs, err := svc.GetTierRecommendations(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Only the two related-skill starts remain.
	assert.Equal(t, "sword", recs[0].SkillCode)
	assert.Equal(t, "LT1", recs[0].RecommendedTier)
	assert.Equal(t, "axe", recs[1].SkillCode)
	assert.Equal(t, "LT1", recs[1].RecommendedTier)
}

func TestRecommendationsDeterministic(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)

	f.setTier("u1", "sword", "LT2")
	f.setTier("u1", "uhc", "LT4")

	first, err := svc.GetTierRecommendations(context.Background(), "u1")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.GetTierRecommendations(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestProgressionPath(t *testing.T) {
	svc := NewService(newFakeRepository(), 10)

	path, err := svc.GetProgressionPath(context.Background(), "LT5")
	require.NoError(t, err)

	assert.Equal(t, "LT5", path.Current.Name)
	assert.Len(t, path.Completed, 4)
	assert.Len(t, path.Upcoming, 5)
	assert.Len(t, path.All, 10)
	assert.Equal(t, "HT1", path.Upcoming[0].Name)
}

func TestTierCountsGrouping(t *testing.T) {
	f := newFakeRepository()
	svc := NewService(f, 10)

	f.counts = []TierCount{
		{SkillCode: "axe", TierName: "HT1", Count: 2},
		{SkillCode: "axe", TierName: "LT3", Count: 1},
		{SkillCode: "sword", TierName: "LT1", Count: 4},
	}

	counts, err := svc.GetTierCounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, counts["axe"]["HT1"])
	assert.Equal(t, 1, counts["axe"]["LT3"])
	assert.Equal(t, 4, counts["sword"]["LT1"])
}
