package posts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pders01/blogr/internal/api"
	"github.com/pders01/blogr/internal/debuglog"
	"github.com/pders01/blogr/internal/storage"
)

// TagPosts labels the list query. Every mutation invalidates it.
const TagPosts = "posts"

const defaultFetchTimeout = 30 * time.Second

// Remote is the subset of the REST client the store needs.
type Remote interface {
	List(ctx context.Context, etag string) (*api.ListResult, error)
	Create(ctx context.Context, post *storage.Post) (*storage.Post, error)
	Update(ctx context.Context, post *storage.Post) (*storage.Post, error)
	Delete(ctx context.Context, id storage.PostID) error
}

// Snapshotter persists the last good collection for offline starts.
type Snapshotter interface {
	SaveSnapshot(snap *storage.Snapshot) error
	LoadSnapshot() (*storage.Snapshot, error)
	ClearSnapshot() error
}

// Result is a collection as served to the UI.
type Result struct {
	Posts []*storage.Post
	// Stale is set when the request failed and Posts came from the snapshot.
	Stale     bool
	FetchedAt time.Time
	// Err is the request failure behind a stale result.
	Err error
}

type entry struct {
	posts     []*storage.Post
	etag      string
	fetchedAt time.Time
	valid     bool
	// generation changes on every invalidation so an in-flight fetch
	// started before a mutation cannot mark the entry fresh.
	generation uint64
}

// Store caches the list query per tag and shares concurrent fetches.
type Store struct {
	remote Remote
	snap   Snapshotter

	mu      sync.Mutex
	entries map[string]*entry
	subs    map[int]func(tag string)
	nextSub int

	flight  singleflight.Group
	timeout time.Duration
	now     func() time.Time
}

// NewStore wires the cache. snap may be nil when no database is available.
func NewStore(remote Remote, snap Snapshotter) *Store {
	return &Store{
		remote:  remote,
		snap:    snap,
		entries: map[string]*entry{TagPosts: {}},
		subs:    make(map[int]func(tag string)),
		timeout: defaultFetchTimeout,
		now:     time.Now,
	}
}

// SetTimeout bounds a shared list request. Non-positive values keep the default.
func (s *Store) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// List returns the cached collection while its tag is valid; otherwise it
// refetches. Concurrent callers share one request.
func (s *Store) List(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	e := s.entries[TagPosts]
	if e.valid {
		res := &Result{Posts: clonePosts(e.posts), FetchedAt: e.fetchedAt}
		s.mu.Unlock()
		return res, nil
	}
	gen := e.generation
	etag := ""
	if e.posts != nil {
		etag = e.etag
	}
	s.mu.Unlock()

	// The shared request outlives any single caller: a caller that gives up
	// stops waiting without failing the others.
	key := fmt.Sprintf("%s#%d", TagPosts, gen)
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.fetch(fetchCtx, gen, etag)
	})

	var r singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("listing posts: %w", ctx.Err())
	case r = <-ch:
	}
	if r.Shared {
		debuglog.Debugf("posts: list shared with in-flight request")
	}
	if r.Err != nil {
		return nil, r.Err
	}
	res := r.Val.(*Result)
	return &Result{
		Posts:     clonePosts(res.Posts),
		Stale:     res.Stale,
		FetchedAt: res.FetchedAt,
		Err:       res.Err,
	}, nil
}

func (s *Store) fetch(ctx context.Context, gen uint64, etag string) (*Result, error) {
	listed, err := s.remote.List(ctx, etag)
	if err != nil {
		if res, ok := s.fromSnapshot(err); ok {
			return res, nil
		}
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	s.mu.Lock()
	e := s.entries[TagPosts]
	now := s.now()
	if listed.NotModified && e.posts != nil {
		listed.Posts = e.posts
	}
	if listed.Posts == nil {
		listed.Posts = []*storage.Post{}
	}
	current := e.generation == gen
	if current {
		e.posts = listed.Posts
		e.etag = listed.ETag
		e.fetchedAt = now
		e.valid = true
	}
	s.mu.Unlock()

	// A fetch overtaken by a mutation must not overwrite the patched snapshot.
	if current && !listed.NotModified {
		s.saveSnapshot(listed.Posts, listed.ETag, now)
	}

	debuglog.WithFields(map[string]interface{}{
		"count":        len(listed.Posts),
		"not_modified": listed.NotModified,
	}).Infof("posts: list fetched")

	return &Result{Posts: listed.Posts, FetchedAt: now}, nil
}

func (s *Store) fromSnapshot(cause error) (*Result, bool) {
	if s.snap == nil {
		return nil, false
	}
	snap, err := s.snap.LoadSnapshot()
	if err != nil {
		if !errors.Is(err, storage.ErrNoSnapshot) {
			debuglog.Warnf("posts: reading snapshot: %v", err)
		}
		return nil, false
	}
	debuglog.Warnf("posts: serving snapshot from %s after error: %v", snap.FetchedAt.Format(time.RFC3339), cause)
	posts := snap.Posts
	if posts == nil {
		posts = []*storage.Post{}
	}
	return &Result{Posts: posts, Stale: true, FetchedAt: snap.FetchedAt, Err: cause}, true
}

func (s *Store) saveSnapshot(posts []*storage.Post, etag string, at time.Time) {
	if s.snap == nil {
		return
	}
	if err := s.snap.SaveSnapshot(&storage.Snapshot{Posts: posts, ETag: etag, FetchedAt: at}); err != nil {
		debuglog.Warnf("posts: saving snapshot: %v", err)
	}
}

// Create stores a new post and invalidates the list on success.
func (s *Store) Create(ctx context.Context, post *storage.Post) (*storage.Post, error) {
	saved, err := s.remote.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	s.patch(func(posts []*storage.Post) []*storage.Post {
		return append(posts, saved)
	})
	s.Invalidate(TagPosts)
	return saved, nil
}

// Update replaces a post and invalidates the list on success.
func (s *Store) Update(ctx context.Context, post *storage.Post) (*storage.Post, error) {
	saved, err := s.remote.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("updating post %s: %w", post.ID, err)
	}
	s.patch(func(posts []*storage.Post) []*storage.Post {
		for i, p := range posts {
			if p.ID == saved.ID {
				posts[i] = saved
			}
		}
		return posts
	})
	s.Invalidate(TagPosts)
	return saved, nil
}

// Delete removes a post and invalidates the list on success.
func (s *Store) Delete(ctx context.Context, id storage.PostID) error {
	if err := s.remote.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting post %s: %w", id, err)
	}
	s.patch(func(posts []*storage.Post) []*storage.Post {
		kept := posts[:0]
		for _, p := range posts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept
	})
	s.Invalidate(TagPosts)
	return nil
}

// patch applies a successful mutation to the cached collection and rewrites
// the snapshot from it, so an offline fallback reflects the mutation. With
// nothing cached the snapshot is dropped instead.
func (s *Store) patch(apply func([]*storage.Post) []*storage.Post) {
	s.mu.Lock()
	e := s.entries[TagPosts]
	var posts []*storage.Post
	if e.posts != nil {
		e.posts = apply(clonePosts(e.posts))
		// The server's tag described the collection before the mutation.
		e.etag = ""
		posts = e.posts
	}
	fetchedAt := e.fetchedAt
	s.mu.Unlock()

	if s.snap == nil {
		return
	}
	if posts == nil {
		if err := s.snap.ClearSnapshot(); err != nil {
			debuglog.Warnf("posts: clearing snapshot: %v", err)
		}
		return
	}
	s.saveSnapshot(posts, "", fetchedAt)
}

// Invalidate marks the tag stale and notifies subscribers. The cached
// collection is kept so the next fetch can be conditional.
func (s *Store) Invalidate(tag string) {
	s.mu.Lock()
	e, ok := s.entries[tag]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.valid = false
	e.generation++
	subs := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	debuglog.Debugf("posts: tag %s invalidated", tag)
	for _, fn := range subs {
		fn(tag)
	}
}

// Subscribe registers fn for invalidation events and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(tag string)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// clonePosts copies the slice so callers cannot reorder the cached one.
func clonePosts(posts []*storage.Post) []*storage.Post {
	out := make([]*storage.Post, len(posts))
	copy(out, posts)
	return out
}
