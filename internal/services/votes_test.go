package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/community-forum/backend/internal/models"
)

// voteFixture is a public community with an author's post (and comment) plus
// a second member who does the voting.
type voteFixture struct {
	env     *testEnv
	author  *models.User
	voter   *models.User
	post    *models.Post
	comment *models.Comment
}

func newVoteFixture(t *testing.T) *voteFixture {
	t.Helper()
	env := newTestEnv(t)
	ctx := context.Background()

	author := createUser(t, env.db, "author")
	voter := createUser(t, env.db, "voter")

	community, err := env.membership.CreateCommunity(ctx, author.ID, models.CreateCommunityRequest{Name: "golang"})
	require.NoError(t, err)
	_, err = env.membership.Join(ctx, voter.ID, community.ID)
	require.NoError(t, err)

	post, err := env.content.CreatePost(ctx, author.ID, community.ID, models.CreatePostRequest{Title: "hello", Body: "world"}, nil)
	require.NoError(t, err)
	comment, err := env.content.AddComment(ctx, author.ID, post.ID, "first")
	require.NoError(t, err)

	return &voteFixture{env: env, author: author, voter: voter, post: post, comment: comment}
}

func (f *voteFixture) postCount(t *testing.T) int {
	t.Helper()
	var post models.Post
	require.NoError(t, f.env.db.First(&post, f.post.ID).Error)
	return post.VoteCount
}

func TestCastVote_RecordsNewVote(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	res, err := f.env.votes.CastVote(ctx, f.voter.ID, f.post.ID, models.TargetPost, models.VoteUp)
	require.NoError(t, err)

	assert.Equal(t, models.VoteRecorded, res.State)
	assert.Equal(t, 1, res.NetDelta)
	assert.Equal(t, 1, f.postCount(t))
	assert.Equal(t, 1, reloadUser(t, f.env.db, f.author.ID).Karma)
	assert.EqualValues(t, 1, count[models.Vote](t, f.env.db, "user_id = ? AND target_id = ?", f.voter.ID, f.post.ID))
}

func TestCastVote_SameTypeTogglesOff(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.env.votes.CastVote(ctx, f.voter.ID, f.post.ID, models.TargetPost, models.VoteUp)
	require.NoError(t, err)

	res, err := f.env.votes.CastVote(ctx, f.voter.ID, f.post.ID, models.TargetPost, models.VoteUp)
	require.NoError(t, err)

	assert.Equal(t, models.VoteRemoved, res.State)
	assert.Equal(t, -1, res.NetDelta)
	assert.Equal(t, 0, f.postCount(t))
	assert.Equal(t, 0, reloadUser(t, f.env.db, f.author.ID).Karma)
	assert.EqualValues(t, 0, count[models.Vote](t, f.env.db, ""))
}

func TestCastVote_FlipAppliesDoubleDelta(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	_, err := f.env.votes.CastVote(ctx, f.voter.ID, f.post.ID, models.TargetPost, models.VoteUp)
	require.NoError(t, err)

	res, err := f.env.votes.CastVote(ctx, f.voter.ID, f.post.ID, models.TargetPost, models.VoteDown)
	require.NoError(t, err)

	assert.Equal(t, models.VoteUpdated, res.State)
	assert.Equal(t, -2, res.NetDelta)
	assert.Equal(t, -1, f.postCount(t))
	assert.Equal(t, -1, reloadUser(t, f.env.db, f.author.ID).Karma)

	// Still exactly one vote row, now a downvote.
	var vote models.Vote
	require.NoError(t, f.env.db.Where("user_id = ? AND target_id = ?", f.voter.ID, f.post.ID).First(&vote).Error)
	assert.Equal(t, models.VoteDown, vote.VoteType)
}

// up (0->1, karma +1), up again (1->0, karma 0), down (0->-1, karma -1).
func TestCastVote_ToggleSequence(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	steps := []struct {
		voteType  string
		wantCount int
		wantKarma int
		wantState string
	}{
		{models.VoteUp, 1, 1, models.VoteRecorded},
		{models.VoteUp, 0, 0, models.VoteRemoved},
		{models.VoteDown, -1, -1, models.VoteRecorded},
	}
	for _, step := range steps {
		res, err := f.env.votes.CastVote(ctx, f.voter.ID, f.post.ID, models.TargetPost, step.voteType)
		require.NoError(t, err)
		assert.Equal(t, step.wantState, res.State)
		assert.Equal(t, step.wantCount, f.postCount(t))
		assert.Equal(t, step.wantKarma, reloadUser(t, f.env.db, f.author.ID).Karma)
	}
}

func TestCastVote_OnComment(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	res, err := f.env.votes.CastVote(ctx, f.voter.ID, f.comment.ID, models.TargetComment, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, models.VoteRecorded, res.State)
	assert.Equal(t, -1, res.NetDelta)

	var comment models.Comment
	require.NoError(t, f.env.db.First(&comment, f.comment.ID).Error)
	assert.Equal(t, -1, comment.VoteCount)
	assert.Equal(t, -1, reloadUser(t, f.env.db, f.author.ID).Karma)
}

func TestCastVote_InvalidVoteType(t *testing.T) {
	f := newVoteFixture(t)

	_, err := f.env.votes.CastVote(context.Background(), f.voter.ID, f.post.ID, models.TargetPost, "sideways")
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = f.env.votes.CastVote(context.Background(), f.voter.ID, f.post.ID, "Thread", models.VoteUp)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestCastVote_NonMemberForbidden(t *testing.T) {
	f := newVoteFixture(t)
	outsider := createUser(t, f.env.db, "outsider")

	_, err := f.env.votes.CastVote(context.Background(), outsider.ID, f.post.ID, models.TargetPost, models.VoteUp)
	assert.True(t, errors.Is(err, models.ErrForbidden))
	assert.Equal(t, 0, f.postCount(t))
}

func TestCastVote_MissingTarget(t *testing.T) {
	f := newVoteFixture(t)

	_, err := f.env.votes.CastVote(context.Background(), f.voter.ID, 9999, models.TargetPost, models.VoteUp)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCastVote_MissingAuthorSkipsKarma(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	require.NoError(t, f.env.db.Delete(&models.User{}, f.author.ID).Error)

	res, err := f.env.votes.CastVote(ctx, f.voter.ID, f.post.ID, models.TargetPost, models.VoteUp)
	require.NoError(t, err)

	// The vote is authoritative even when karma can't be applied.
	assert.Equal(t, models.VoteRecorded, res.State)
	assert.Equal(t, 1, f.postCount(t))
	assert.EqualValues(t, 1, count[models.Vote](t, f.env.db, ""))
}

func TestCastVote_SeparateVotersAccumulate(t *testing.T) {
	f := newVoteFixture(t)
	ctx := context.Background()

	second := createUser(t, f.env.db, "second")
	_, err := f.env.membership.Join(ctx, second.ID, f.post.CommunityID)
	require.NoError(t, err)

	_, err = f.env.votes.CastVote(ctx, f.voter.ID, f.post.ID, models.TargetPost, models.VoteUp)
	require.NoError(t, err)
	_, err = f.env.votes.CastVote(ctx, second.ID, f.post.ID, models.TargetPost, models.VoteUp)
	require.NoError(t, err)

	assert.Equal(t, 2, f.postCount(t))
	assert.Equal(t, 2, reloadUser(t, f.env.db, f.author.ID).Karma)
}
