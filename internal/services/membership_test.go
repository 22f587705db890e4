package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/community-forum/backend/internal/models"
	"github.com/emilythestrangee/community-forum/backend/internal/services"
)

func TestCreateCommunity_SeedsOwnerMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner")

	community, err := env.membership.CreateCommunity(ctx, owner.ID, models.CreateCommunityRequest{
		Name:        "gophers",
		Description: "a place for gophers",
	})
	require.NoError(t, err)

	assert.Equal(t, models.AccessPublic, community.Access)
	assert.Equal(t, owner.ID, community.OwnerID)
	assert.Equal(t, 1, community.MemberCount)

	isMember, err := env.membership.IsMember(ctx, owner.ID, community.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	isAdmin, err := env.membership.IsAdmin(ctx, owner.ID, community.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isOwner, err := env.membership.IsOwner(ctx, owner.ID, community.ID)
	require.NoError(t, err)
	assert.True(t, isOwner)
}

func TestCreateCommunity_DuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner")

	_, err := env.membership.CreateCommunity(ctx, owner.ID, models.CreateCommunityRequest{Name: "gophers"})
	require.NoError(t, err)

	_, err = env.membership.CreateCommunity(ctx, owner.ID, models.CreateCommunityRequest{Name: "gophers"})
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestCreateCommunity_InvalidAccess(t *testing.T) {
	env := newTestEnv(t)
	owner := createUser(t, env.db, "owner")

	_, err := env.membership.CreateCommunity(context.Background(), owner.ID, models.CreateCommunityRequest{
		Name:   "gophers",
		Access: "Secret",
	})
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestJoin_PublicCommunity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner")
	joiner := createUser(t, env.db, "joiner")

	community, err := env.membership.CreateCommunity(ctx, owner.ID, models.CreateCommunityRequest{Name: "gophers"})
	require.NoError(t, err)

	state, err := env.membership.Join(ctx, joiner.ID, community.ID)
	require.NoError(t, err)
	assert.Equal(t, services.JoinStateJoined, state)

	updated, err := env.membership.GetCommunity(ctx, community.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MemberCount)

	// Already a member now.
	_, err = env.membership.Join(ctx, joiner.ID, community.ID)
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestJoin_PrivateCommunityFilesRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner")
	joiner := createUser(t, env.db, "joiner")

	community, err := env.membership.CreateCommunity(ctx, owner.ID, models.CreateCommunityRequest{
		Name:   "secret-gophers",
		Access: models.AccessPrivate,
	})
	require.NoError(t, err)

	state, err := env.membership.Join(ctx, joiner.ID, community.ID)
	require.NoError(t, err)
	assert.Equal(t, services.JoinStateRequested, state)

	// No membership, no member count change, just the request row.
	updated, err := env.membership.GetCommunity(ctx, community.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.MemberCount)

	isMember, err := env.membership.IsMember(ctx, joiner.ID, community.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
	assert.EqualValues(t, 1, count[models.JoinRequest](t, env.db, "community_id = ?", community.ID))

	// Requesting twice is a conflict.
	_, err = env.membership.Join(ctx, joiner.ID, community.ID)
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestAcceptJoin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner")
	joiner := createUser(t, env.db, "joiner")

	community, err := env.membership.CreateCommunity(ctx, owner.ID, models.CreateCommunityRequest{
		Name:   "secret-gophers",
		Access: models.AccessPrivate,
	})
	require.NoError(t, err)
	_, err = env.membership.Join(ctx, joiner.ID, community.ID)
	require.NoError(t, err)

	require.NoError(t, env.membership.AcceptJoin(ctx, owner.ID, community.ID, joiner.ID))

	isMember, err := env.membership.IsMember(ctx, joiner.ID, community.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	updated, err := env.membership.GetCommunity(ctx, community.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MemberCount)
	assert.EqualValues(t, 0, count[models.JoinRequest](t, env.db, "community_id = ?", community.ID))
}

func TestAcceptJoin_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner")
	joiner := createUser(t, env.db, "joiner")
	stranger := createUser(t, env.db, "stranger")

	community, err := env.membership.CreateCommunity(ctx, owner.ID, models.CreateCommunityRequest{
		Name:   "secret-gophers",
		Access: models.AccessPrivate,
	})
	require.NoError(t, err)

	// Nobody requested anything yet.
	err = env.membership.AcceptJoin(ctx, owner.ID, community.ID, joiner.ID)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = env.membership.Join(ctx, joiner.ID, community.ID)
	require.NoError(t, err)

	// Non-admins cannot approve.
	err = env.membership.AcceptJoin(ctx, stranger.ID, community.ID, joiner.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden))

	// Accepting an existing member is a conflict.
	require.NoError(t, env.membership.AcceptJoin(ctx, owner.ID, community.ID, joiner.ID))
	err = env.membership.AcceptJoin(ctx, owner.ID, community.ID, joiner.ID)
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestDeclineJoin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner")
	joiner := createUser(t, env.db, "joiner")

	community, err := env.membership.CreateCommunity(ctx, owner.ID, models.CreateCommunityRequest{
		Name:   "secret-gophers",
		Access: models.AccessPrivate,
	})
	require.NoError(t, err)
	_, err = env.membership.Join(ctx, joiner.ID, community.ID)
	require.NoError(t, err)

	require.NoError(t, env.membership.DeclineJoin(ctx, owner.ID, community.ID, joiner.ID))

	isMember, err := env.membership.IsMember(ctx, joiner.ID, community.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
	assert.EqualValues(t, 0, count[models.JoinRequest](t, env.db, "community_id = ?", community.ID))

	// Declining again fails, the request is gone.
	err = env.membership.DeclineJoin(ctx, owner.ID, community.ID, joiner.ID)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner")
	member := createUser(t, env.db, "member")

	community, err := env.membership.CreateCommunity(ctx, owner.ID, models.CreateCommunityRequest{Name: "gophers"})
	require.NoError(t, err)
	_, err = env.membership.Join(ctx, member.ID, community.ID)
	require.NoError(t, err)

	// Admins cannot remove themselves.
	err = env.membership.RemoveMember(ctx, owner.ID, community.ID, owner.ID)
	assert.True(t, errors.Is(err, models.ErrValidation))

	require.NoError(t, env.membership.RemoveMember(ctx, owner.ID, community.ID, member.ID))

	isMember, err := env.membership.IsMember(ctx, member.ID, community.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	updated, err := env.membership.GetCommunity(ctx, community.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.MemberCount)

	// Removing a non-member fails.
	err = env.membership.RemoveMember(ctx, owner.ID, community.ID, member.ID)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestDeleteCommunity_Cascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createUser(t, env.db, "owner")
	member := createUser(t, env.db, "member")

	community, err := env.membership.CreateCommunity(ctx, owner.ID, models.CreateCommunityRequest{Name: "gophers"})
	require.NoError(t, err)
	_, err = env.membership.Join(ctx, member.ID, community.ID)
	require.NoError(t, err)

	post, err := env.content.CreatePost(ctx, owner.ID, community.ID, models.CreatePostRequest{Title: "t", Body: "b"},
		[]models.PostMedia{{URL: "http://cdn/x.png", Kind: models.MediaImage}})
	require.NoError(t, err)
	comment, err := env.content.AddComment(ctx, member.ID, post.ID, "nice")
	require.NoError(t, err)

	_, err = env.votes.CastVote(ctx, member.ID, post.ID, models.TargetPost, models.VoteUp)
	require.NoError(t, err)
	_, err = env.votes.CastVote(ctx, owner.ID, comment.ID, models.TargetComment, models.VoteUp)
	require.NoError(t, err)

	// Only the owner may delete, admins are not enough.
	err = env.membership.DeleteCommunity(ctx, member.ID, community.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden))

	require.NoError(t, env.membership.DeleteCommunity(ctx, owner.ID, community.ID))

	// Nothing referencing the community survives.
	assert.EqualValues(t, 0, count[models.Community](t, env.db, ""))
	assert.EqualValues(t, 0, count[models.Post](t, env.db, ""))
	assert.EqualValues(t, 0, count[models.PostMedia](t, env.db, ""))
	assert.EqualValues(t, 0, count[models.Comment](t, env.db, ""))
	assert.EqualValues(t, 0, count[models.Vote](t, env.db, ""))
	assert.EqualValues(t, 0, count[models.Membership](t, env.db, ""))
	assert.EqualValues(t, 0, count[models.JoinRequest](t, env.db, ""))
}

func TestDeleteCommunity_NotFound(t *testing.T) {
	env := newTestEnv(t)
	owner := createUser(t, env.db, "owner")

	err := env.membership.DeleteCommunity(context.Background(), owner.ID, 404)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
