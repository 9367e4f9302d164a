package posts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/blogr/internal/api"
	"github.com/pders01/blogr/internal/storage"
)

type fakeRemote struct {
	mu        sync.Mutex
	posts     []*storage.Post
	etag      string
	listCalls int32
	listErr   error
	mutErr    error
	gate      chan struct{}
	seenETags []string
	nextID    int
}

func (f *fakeRemote) List(ctx context.Context, etag string) (*api.ListResult, error) {
	atomic.AddInt32(&f.listCalls, 1)
	if f.gate != nil {
		<-f.gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seenETags = append(f.seenETags, etag)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if etag != "" && etag == f.etag {
		return &api.ListResult{ETag: etag, NotModified: true}, nil
	}
	out := make([]*storage.Post, len(f.posts))
	copy(out, f.posts)
	return &api.ListResult{Posts: out, ETag: f.etag}, nil
}

func (f *fakeRemote) Create(ctx context.Context, post *storage.Post) (*storage.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	f.nextID++
	saved := *post
	saved.ID = storage.PostID(fmt.Sprintf("n%d", f.nextID))
	f.posts = append(f.posts, &saved)
	f.etag = "v" + string(saved.ID)
	return &saved, nil
}

func (f *fakeRemote) Update(ctx context.Context, post *storage.Post) (*storage.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	for i, p := range f.posts {
		if p.ID == post.ID {
			cp := *post
			f.posts[i] = &cp
			f.etag += "u"
			return &cp, nil
		}
	}
	return nil, api.ErrNotFound
}

func (f *fakeRemote) Delete(ctx context.Context, id storage.PostID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return f.mutErr
	}
	for i, p := range f.posts {
		if p.ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			f.etag += "d"
			return nil
		}
	}
	return api.ErrNotFound
}

func seed(n int) []*storage.Post {
	out := make([]*storage.Post, n)
	for i := range out {
		id := storage.PostID(strconv.Itoa(i + 1))
		out[i] = &storage.Post{ID: id, Title: "Post " + string(id), Body: "body"}
	}
	return out
}

func newDB(t *testing.T) *storage.Store {
	t.Helper()
	db, err := storage.NewStore(filepath.Join(t.TempDir(), "posts.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestList_CachesUntilInvalidated(t *testing.T) {
	remote := &fakeRemote{posts: seed(3), etag: "v1"}
	store := NewStore(remote, nil)
	ctx := context.Background()

	res, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Posts, 3)
	assert.False(t, res.Stale)

	_, err = store.List(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&remote.listCalls), "second list must be served from cache")

	store.Invalidate(TagPosts)
	_, err = store.List(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&remote.listCalls))
}

func TestList_ConditionalRefetchKeepsCollection(t *testing.T) {
	remote := &fakeRemote{posts: seed(2), etag: "v1"}
	store := NewStore(remote, nil)
	ctx := context.Background()

	_, err := store.List(ctx)
	require.NoError(t, err)

	store.Invalidate(TagPosts)
	res, err := store.List(ctx)
	require.NoError(t, err)

	assert.Len(t, res.Posts, 2)
	assert.Equal(t, []string{"", "v1"}, remote.seenETags)
}

func TestList_ConcurrentCallersShareRequest(t *testing.T) {
	remote := &fakeRemote{posts: seed(2), etag: "v1", gate: make(chan struct{})}
	store := NewStore(remote, nil)

	var wg sync.WaitGroup
	results := make([]*Result, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := store.List(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	// Let every goroutine reach the shared call before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(remote.gate)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&remote.listCalls))
	for _, res := range results {
		require.NotNil(t, res)
		assert.Len(t, res.Posts, 2)
	}
}

func TestList_ReturnsCopies(t *testing.T) {
	remote := &fakeRemote{posts: seed(3), etag: "v1"}
	store := NewStore(remote, nil)

	res, err := store.List(context.Background())
	require.NoError(t, err)
	res.Posts[0], res.Posts[2] = res.Posts[2], res.Posts[0]

	again, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.PostID("1"), again.Posts[0].ID)
}

func TestMutationsInvalidateAndNotify(t *testing.T) {
	remote := &fakeRemote{posts: seed(2), etag: "v1"}
	store := NewStore(remote, nil)
	ctx := context.Background()

	var notified []string
	unsubscribe := store.Subscribe(func(tag string) { notified = append(notified, tag) })

	_, err := store.List(ctx)
	require.NoError(t, err)

	created, err := store.Create(ctx, &storage.Post{Title: "New", Body: "b"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	res, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Posts, 3)

	_, err = store.Update(ctx, &storage.Post{ID: "1", Title: "Edited", Body: "b"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "2"))

	res, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Posts, 2)
	assert.Equal(t, "Edited", res.Posts[0].Title)

	assert.Equal(t, []string{TagPosts, TagPosts, TagPosts}, notified)

	unsubscribe()
	require.NoError(t, store.Delete(ctx, "1"))
	assert.Len(t, notified, 3)
}

func TestFailedMutationLeavesCacheValid(t *testing.T) {
	remote := &fakeRemote{posts: seed(2), etag: "v1"}
	store := NewStore(remote, nil)
	ctx := context.Background()

	_, err := store.List(ctx)
	require.NoError(t, err)

	notified := 0
	store.Subscribe(func(string) { notified++ })

	remote.mutErr = errors.New("boom")
	err = store.Delete(ctx, "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deleting post 1")

	_, err = store.Create(ctx, &storage.Post{Title: "x", Body: "y"})
	require.Error(t, err)

	assert.Zero(t, notified)
	_, err = store.List(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&remote.listCalls))
}

func TestDeleteNotFoundWraps(t *testing.T) {
	remote := &fakeRemote{posts: seed(1), etag: "v1"}
	store := NewStore(remote, nil)

	err := store.Delete(context.Background(), "42")
	assert.True(t, errors.Is(err, api.ErrNotFound))
}

func TestList_FallsBackToSnapshot(t *testing.T) {
	db := newDB(t)
	remote := &fakeRemote{posts: seed(3), etag: "v1"}

	first := NewStore(remote, db)
	_, err := first.List(context.Background())
	require.NoError(t, err)

	// A new session with the server down.
	remote.listErr = errors.New("connection refused")
	second := NewStore(remote, db)
	res, err := second.List(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Stale)
	assert.Len(t, res.Posts, 3)
	assert.EqualError(t, res.Err, "connection refused")
	assert.False(t, res.FetchedAt.IsZero())
}

func TestList_SnapshotReflectsMutations(t *testing.T) {
	db := newDB(t)
	remote := &fakeRemote{posts: seed(3), etag: "v1"}
	store := NewStore(remote, db)
	ctx := context.Background()

	_, err := store.List(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "2"))
	_, err = store.Update(ctx, &storage.Post{ID: "1", Title: "Edited", Body: "b"})
	require.NoError(t, err)
	created, err := store.Create(ctx, &storage.Post{Title: "New", Body: "b"})
	require.NoError(t, err)

	// The refetch after the mutations fails.
	remote.listErr = errors.New("connection refused")
	res, err := store.List(ctx)
	require.NoError(t, err)
	require.True(t, res.Stale)

	ids := make([]storage.PostID, len(res.Posts))
	for i, p := range res.Posts {
		ids[i] = p.ID
	}
	assert.Equal(t, []storage.PostID{"1", "3", created.ID}, ids)
	assert.NotContains(t, ids, storage.PostID("2"))
	assert.Equal(t, "Edited", res.Posts[0].Title)
}

func TestOvertakenFetchKeepsPatchedSnapshot(t *testing.T) {
	db := newDB(t)
	remote := &fakeRemote{posts: seed(3), etag: "v1"}
	store := NewStore(remote, db)
	ctx := context.Background()

	_, err := store.List(ctx)
	require.NoError(t, err)
	store.Invalidate(TagPosts)

	// A refetch is in flight with the old collection when the delete lands.
	remote.gate = make(chan struct{})
	remote.etag = "v2"
	done := make(chan struct{})
	go func() {
		_, _ = store.List(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, store.Delete(ctx, "2"))

	// Serve the collection as it was before the delete.
	remote.mu.Lock()
	remote.posts = seed(3)
	remote.mu.Unlock()
	close(remote.gate)
	<-done

	snap, err := db.LoadSnapshot()
	require.NoError(t, err)
	for _, p := range snap.Posts {
		assert.NotEqual(t, storage.PostID("2"), p.ID)
	}
}

func TestMutationWithoutCacheClearsSnapshot(t *testing.T) {
	db := newDB(t)
	remote := &fakeRemote{posts: seed(3), etag: "v1"}
	ctx := context.Background()

	_, err := NewStore(remote, db).List(ctx)
	require.NoError(t, err)

	// A later session deletes before its first list has completed.
	second := NewStore(remote, db)
	require.NoError(t, second.Delete(ctx, "2"))

	_, err = db.LoadSnapshot()
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)

	remote.listErr = errors.New("connection refused")
	_, err = second.List(ctx)
	require.Error(t, err)
}

func TestList_CancelledCallerDoesNotFailSharedRequest(t *testing.T) {
	remote := &fakeRemote{posts: seed(2), etag: "v1", gate: make(chan struct{})}
	store := NewStore(remote, nil)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := store.List(first)
		firstErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	second := make(chan *Result, 1)
	go func() {
		res, err := store.List(context.Background())
		assert.NoError(t, err)
		second <- res
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	err := <-firstErr
	assert.ErrorIs(t, err, context.Canceled)

	close(remote.gate)
	res := <-second
	require.NotNil(t, res)
	assert.Len(t, res.Posts, 2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&remote.listCalls))
}

func TestSetTimeout(t *testing.T) {
	store := NewStore(&fakeRemote{}, nil)
	assert.Equal(t, defaultFetchTimeout, store.timeout)

	store.SetTimeout(0)
	assert.Equal(t, defaultFetchTimeout, store.timeout)

	store.SetTimeout(2 * time.Second)
	assert.Equal(t, 2*time.Second, store.timeout)
}

func TestList_ErrorWithoutSnapshot(t *testing.T) {
	remote := &fakeRemote{listErr: errors.New("connection refused")}
	store := NewStore(remote, newDB(t))

	_, err := store.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing posts")
}

func TestInvalidateDuringFetchKeepsTagStale(t *testing.T) {
	remote := &fakeRemote{posts: seed(2), etag: "v1", gate: make(chan struct{})}
	store := NewStore(remote, nil)

	done := make(chan struct{})
	go func() {
		_, _ = store.List(context.Background())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	store.Invalidate(TagPosts)
	close(remote.gate)
	<-done

	_, err := store.List(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&remote.listCalls), "fetch started before invalidation must not satisfy later reads")
}
