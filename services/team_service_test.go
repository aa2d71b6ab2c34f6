package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamService_CreateAndJoin(t *testing.T) {
	f := newFixture(t)
	teams := NewTeamService(f.deps)
	ctx := context.Background()

	team, err := teams.Create(ctx, 1, "  red  ")
	require.NoError(t, err)
	assert.Equal(t, "red", team.TeamName)
	assert.Len(t, team.InvitationCode, 12)

	_, err = teams.Create(ctx, 1, "blue")
	assert.ErrorIs(t, err, ErrAlreadyInTeam)

	joined, err := teams.Join(ctx, 2, team.InvitationCode)
	require.NoError(t, err)
	assert.Equal(t, team.ID, joined.ID)

	_, err = teams.Join(ctx, 2, team.InvitationCode)
	assert.ErrorIs(t, err, ErrAlreadyInTeam)

	_, err = teams.Join(ctx, 3, "NOPE")
	assert.ErrorIs(t, err, ErrInvitationCode)

	who, err := f.subs.ResolveSubmitter(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, team.ID, who.TeamID)

	_, err = teams.Create(ctx, 4, " ")
	assert.Error(t, err)
}
