package services

import (
	"DaliCTF/dto"
	"DaliCTF/models"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDelayedReq(name string) dto.CreateChallengeReq {
	expiry := T0.Unix()
	return dto.CreateChallengeReq{
		ChallengeName: name,
		Author:        "admin",
		Description:   "find the flag",
		State:         "Visible",
		Type:          "Delayed",
		Initial:       500,
		Minimum:       100,
		Decay:         10,
		Expiry:        &expiry,
		Flags:         []dto.FlagReq{{Content: "flag{" + name + "}"}},
	}
}

func TestChallengeService_Create(t *testing.T) {
	f := newFixture(t)

	ch, err := f.chals.Create(context.Background(), validDelayedReq("created"))
	require.NoError(t, err)
	assert.NotZero(t, ch.ID)
	assert.Equal(t, models.ChallengeTypeDelayed, ch.Type)
	assert.Equal(t, models.ChallengeStateVisible, ch.State)
	assert.Equal(t, models.DecayFunctionLogarithmic, ch.Function)
	assert.Equal(t, 500, ch.Value)
	require.Len(t, ch.Flags, 1)
	assert.Equal(t, models.FlagTypeStatic, ch.Flags[0].Type)

	sb, list := f.cache.counts()
	assert.Equal(t, 1, sb)
	assert.Equal(t, 1, list)
}

func TestChallengeService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *dto.CreateChallengeReq)
		target error
	}{
		{"no flags", func(r *dto.CreateChallengeReq) { r.Flags = nil }, ErrInvalidChallenge},
		{"empty flag", func(r *dto.CreateChallengeReq) { r.Flags[0].Content = "  " }, ErrInvalidChallenge},
		{"bad regex", func(r *dto.CreateChallengeReq) { r.Flags[0] = dto.FlagReq{Type: "regex", Content: "flag{("} }, ErrInvalidChallenge},
		{"unknown flag type", func(r *dto.CreateChallengeReq) { r.Flags[0].Type = "wasm" }, ErrInvalidChallenge},
		{"minimum above initial", func(r *dto.CreateChallengeReq) { r.Minimum = 900 }, ErrInvalidChallenge},
		{"unknown decay", func(r *dto.CreateChallengeReq) { r.Function = "cubic" }, ErrInvalidChallenge},
		{"unknown type", func(r *dto.CreateChallengeReq) { r.Type = "dynamic" }, ErrUnknownChallengeType},
		{"bad state", func(r *dto.CreateChallengeReq) { r.State = "archived" }, ErrInvalidChallenge},
		{"missing author", func(r *dto.CreateChallengeReq) { r.Author = "" }, ErrInvalidChallenge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validDelayedReq("invalid")
			tt.mutate(&req)
			_, err := f.chals.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestChallengeService_UpdateExpiryKeepsPromotions(t *testing.T) {
	f := newFixture(t)
	ch, err := f.chals.Create(context.Background(), validDelayedReq("moved"))
	require.NoError(t, err)
	f.failedAt(t, ch, alice, "flag{moved}", T0.Add(-time.Minute))

	f.clock.Set(T0.Add(time.Minute))
	res, err := f.engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Promotions, 1)

	later := T0.Add(24 * time.Hour).Unix()
	updated, err := f.chals.Update(context.Background(), ch.ID, dto.UpdateChallengeReq{Expiry: &later})
	require.NoError(t, err)
	assert.Equal(t, later, *updated.Expiry)
	assert.Equal(t, int64(1), f.countSolves(t, ch.ID, alice))
}

func TestChallengeService_UpdateReplacesFlags(t *testing.T) {
	f := newFixture(t)
	ch, err := f.chals.Create(context.Background(), validDelayedReq("swap"))
	require.NoError(t, err)

	flags := []dto.FlagReq{
		{Type: "REGEX", Content: `flag\{v[0-9]\}`},
		{Content: "flag{alt}", Data: models.FlagDataCaseInsensitive},
	}
	_, err = f.chals.Update(context.Background(), ch.ID, dto.UpdateChallengeReq{Flags: &flags})
	require.NoError(t, err)

	var stored []models.Flag
	require.NoError(t, f.db.Where("challenge_id = ?", ch.ID).Order("id").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, models.FlagTypeRegex, stored[0].Type)
	assert.Equal(t, models.FlagTypeStatic, stored[1].Type)

	empty := []dto.FlagReq{}
	_, err = f.chals.Update(context.Background(), ch.ID, dto.UpdateChallengeReq{Flags: &empty})
	assert.ErrorIs(t, err, ErrInvalidChallenge)

	_, err = f.chals.Update(context.Background(), 999, dto.UpdateChallengeReq{})
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestChallengeService_Read(t *testing.T) {
	f := newFixture(t)
	visible, err := f.chals.Create(context.Background(), validDelayedReq("shown"))
	require.NoError(t, err)
	hiddenReq := validDelayedReq("secret")
	hiddenReq.State = "hidden"
	hidden, err := f.chals.Create(context.Background(), hiddenReq)
	require.NoError(t, err)

	detail, err := f.chals.Detail(context.Background(), visible.ID)
	require.NoError(t, err)
	assert.True(t, detail.Withheld)
	assert.Equal(t, "delayed", detail.TypeData.Name)

	_, err = f.chals.Detail(context.Background(), hidden.ID)
	assert.ErrorIs(t, err, ErrChallengeHidden)

	admin, err := f.chals.AdminDetail(context.Background(), hidden.ID)
	require.NoError(t, err)
	require.Len(t, admin.Flags, 1)
	assert.Equal(t, "flag{secret}", admin.Flags[0].Content)

	items, err := f.chals.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, visible.ID, items[0].ID)
}
