package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/totegamma/tentd"
	"github.com/totegamma/tentd/internal/domain"
)

func ptr[T any](v T) *T { return &v }

type postFixture struct {
	uc        *PostUsecase
	posts     *mockPostRepo
	followers *mockFollowerRepo
	remote    *fakeRemote
	events    *mockEvents
	reports   chan domain.DeliveryReport
}

func newPostFixture() *postFixture {
	f := &postFixture{
		posts:     newMockPostRepo(),
		followers: newMockFollowerRepo(),
		remote:    newFakeRemote(),
		events:    &mockEvents{},
		reports:   make(chan domain.DeliveryReport, 8),
	}
	dispatcher := NewFanoutDispatcher(f.remote, 4, testLogger())
	f.uc = NewPostUsecase(f.posts, f.followers, dispatcher, f.events, testLogger())
	f.uc.OnDelivery(f.reports)
	return f
}

func (f *postFixture) addFollower(identifier string) domain.Follower {
	fl := follower(uuid.NewString(), identifier)
	_, _ = f.followers.Create(context.Background(), fl)
	return fl
}

func TestPublishWithoutFollowers(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newPostFixture()

	post, err := f.uc.Publish(context.Background(), testEntity, domain.PostInput{
		Schema:  ptr("s1"),
		Content: map[string]any{"x": 1},
	})
	require.NoError(t, err)
	f.uc.Drain()

	assert.Equal(t, "s1", post.Schema)
	assert.Equal(t, testEntity.ID, post.EntityID)
	assert.Equal(t, testEntity.IdentityURL, post.Entity)
	assert.Equal(t, map[string]any{"x": 1}, post.Content)
	assert.Equal(t, 0, f.remote.totalPosts())

	stored, err := f.posts.Get(context.Background(), testEntity.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post, stored)
}

func TestPublishDeliversToEveryFollowerOnce(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newPostFixture()
	a := f.addFollower("https://a.example")
	down := f.addFollower("https://down.example")
	c := f.addFollower("https://c.example")
	f.remote.fail["https://down.example/notify"] = errors.New("no route to host")

	post, err := f.uc.Publish(context.Background(), testEntity, domain.PostInput{
		Schema:  ptr("https://tent.io/types/post/status/v0.1.0"),
		Content: map[string]any{"text": "hello"},
	})
	require.NoError(t, err)
	f.uc.Drain()

	for _, fl := range []domain.Follower{a, down, c} {
		assert.Equal(t, 1, f.remote.postCount(fl.Identifier+"/notify"))
	}

	select {
	case report := <-f.reports:
		assert.Equal(t, post.ID, report.PostID)
		assert.ElementsMatch(t, []string{a.ID, c.ID}, report.Delivered)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, down.ID, report.Failed[0].FollowerID)
	case <-time.After(time.Second):
		t.Fatal("no delivery report")
	}

	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, tent.EventPostCreated, events[0].Type)
	assert.Equal(t, testEntity.IdentityURL, events[0].Entity)
}

func TestPublishDoesNotWaitForDelivery(t *testing.T) {
	f := newPostFixture()
	slow := f.addFollower("https://slow.example")
	release := make(chan struct{})
	f.remote.block[slow.Identifier+"/notify"] = release

	_, err := f.uc.Publish(context.Background(), testEntity, domain.PostInput{Schema: ptr("s"), Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, 0, f.remote.totalPosts())

	close(release)
	f.uc.Drain()
	assert.Equal(t, 1, f.remote.totalPosts())
}

func TestPublishSurvivesCancelledRequest(t *testing.T) {
	f := newPostFixture()
	fl := f.addFollower("https://a.example")
	ctx, cancel := context.WithCancel(context.Background())

	_, err := f.uc.Publish(ctx, testEntity, domain.PostInput{Schema: ptr("s"), Content: "c"})
	require.NoError(t, err)
	cancel()
	f.uc.Drain()

	assert.Equal(t, 1, f.remote.postCount(fl.Identifier+"/notify"))
}

func TestPublishFollowerListFailure(t *testing.T) {
	f := newPostFixture()
	f.followers.listErr = errors.New("db down")

	post, err := f.uc.Publish(context.Background(), testEntity, domain.PostInput{Schema: ptr("s"), Content: "c"})
	require.NoError(t, err)
	f.uc.Drain()

	_, err = f.posts.Get(context.Background(), testEntity.ID, post.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, f.remote.totalPosts())
}

func TestPublishValidation(t *testing.T) {
	f := newPostFixture()

	_, err := f.uc.Publish(context.Background(), testEntity, domain.PostInput{Content: "c"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Publish(context.Background(), testEntity, domain.PostInput{Schema: ptr("s")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	posts, err := f.uc.List(context.Background(), testEntity)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostUpdateAndDelete(t *testing.T) {
	f := newPostFixture()
	post, err := f.uc.Publish(context.Background(), testEntity, domain.PostInput{Schema: ptr("s1"), Content: "one"})
	require.NoError(t, err)
	f.uc.Drain()

	updated, err := f.uc.Update(context.Background(), testEntity, post.ID, domain.PostInput{Content: "two"})
	require.NoError(t, err)
	assert.Equal(t, "two", updated.Content)
	assert.Equal(t, "s1", updated.Schema)

	updated, err = f.uc.Update(context.Background(), testEntity, post.ID, domain.PostInput{Schema: ptr("s2")})
	require.NoError(t, err)
	assert.Equal(t, "two", updated.Content)
	assert.Equal(t, "s2", updated.Schema)

	require.NoError(t, f.uc.Delete(context.Background(), testEntity, post.ID))
	_, err = f.uc.Get(context.Background(), testEntity, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Get(context.Background(), testEntity, "garbage")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.uc.Delete(context.Background(), testEntity, "garbage"), domain.ErrNotFound)
}

func TestPublishedPostCarriesOwnerIdentity(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newPostFixture()
	f.addFollower("https://a.example")

	post, err := f.uc.Publish(context.Background(), testEntity, domain.PostInput{Schema: ptr("s1"), Content: "hi"})
	require.NoError(t, err)
	f.uc.Drain()

	body, contentType := f.remote.lastPost("https://a.example/notify")
	require.NotEmpty(t, body)
	assert.Equal(t, tent.MIMEType, contentType)

	var delivered map[string]any
	require.NoError(t, json.Unmarshal(body, &delivered))
	assert.Equal(t, testEntity.IdentityURL, delivered["entity"])
	assert.Equal(t, post.ID, delivered["id"])
	assert.NotContains(t, string(body), testEntity.ID)
}

func TestStoredPostsAreStampedWithOwner(t *testing.T) {
	f := newPostFixture()
	id := uuid.NewString()
	_, err := f.posts.Create(context.Background(), domain.Post{ID: id, EntityID: testEntity.ID, Schema: "s1", Content: "x"})
	require.NoError(t, err)

	got, err := f.uc.Get(context.Background(), testEntity, id)
	require.NoError(t, err)
	assert.Equal(t, testEntity.IdentityURL, got.Entity)

	list, err := f.uc.List(context.Background(), testEntity)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, testEntity.IdentityURL, list[0].Entity)

	updated, err := f.uc.Update(context.Background(), testEntity, id, domain.PostInput{Content: "y"})
	require.NoError(t, err)
	assert.Equal(t, testEntity.IdentityURL, updated.Entity)

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(out), testEntity.ID)
}
