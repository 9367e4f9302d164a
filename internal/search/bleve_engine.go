package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/blogr/internal/debuglog"
	"github.com/pders01/blogr/internal/storage"
)

// Index is a full-text matcher over title and body backed by an in-memory
// bleve index. It is rebuilt whenever the collection changes.
type Index struct {
	mu       sync.Mutex
	idx      bleve.Index
	fallback *TitleMatcher
}

func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return &Index{idx: idx, fallback: NewTitleMatcher()}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = false
	title.IncludeTermVectors = true

	body := bleve.NewTextFieldMapping()
	body.Analyzer = standard.Name
	body.Store = false
	body.IncludeTermVectors = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("body", body)

	im.DefaultMapping = dm
	return im
}

// OnCollection replaces the indexed documents with posts.
func (x *Index) OnCollection(posts []*storage.Post) {
	if err := x.Rebuild(posts); err != nil {
		debuglog.Errorf("search: rebuilding index: %v", err)
	}
}

func (x *Index) Rebuild(posts []*storage.Post) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating search index: %w", err)
	}

	batch := idx.NewBatch()
	for _, p := range posts {
		if p == nil || p.ID == "" {
			continue
		}
		if err := batch.Index(p.ID.String(), map[string]any{
			"title": p.Title,
			"body":  p.Body,
		}); err != nil {
			idx.Close()
			return fmt.Errorf("indexing post %s: %w", p.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return fmt.Errorf("writing index batch: %w", err)
	}

	old := x.idx
	x.idx = idx
	if old != nil {
		_ = old.Close()
	}
	if n, err := idx.DocCount(); err == nil {
		debuglog.Debugf("search: indexed %d of %d posts", n, len(posts))
	}
	return nil
}

// Match returns the posts whose title or body matches any word of term,
// by exact term or prefix, in collection order. Posts without an id, and
// every post when the query fails, are matched by title instead.
func (x *Index) Match(posts []*storage.Post, term string) []*storage.Post {
	tokens := tokenize(term)
	if len(tokens) == 0 {
		return x.fallback.Match(posts, term)
	}

	var qs []bleveQuery.Query
	for _, tok := range tokens {
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("title")
		qt.SetBoost(4.0)
		qs = append(qs, qt)
		qtp := bleve.NewPrefixQuery(tok)
		qtp.SetField("title")
		qtp.SetBoost(3.5)
		qs = append(qs, qtp)
		qb := bleve.NewMatchQuery(tok)
		qb.SetField("body")
		qs = append(qs, qb)
		qbp := bleve.NewPrefixQuery(tok)
		qbp.SetField("body")
		qbp.SetBoost(0.8)
		qs = append(qs, qbp)
	}

	x.mu.Lock()
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), len(posts)+1, 0, false)
	res, err := x.idx.Search(req)
	x.mu.Unlock()
	if err != nil {
		debuglog.Warnf("search: full-text query %q failed: %v", term, err)
		return x.fallback.Match(posts, term)
	}

	hits := make(map[string]struct{}, len(res.Hits))
	for _, h := range res.Hits {
		hits[h.ID] = struct{}{}
	}

	out := make([]*storage.Post, 0, len(hits))
	for _, p := range posts {
		if p == nil {
			continue
		}
		if _, ok := hits[p.ID.String()]; ok {
			out = append(out, p)
			continue
		}
		if p.ID == "" && len(x.fallback.Match([]*storage.Post{p}, term)) == 1 {
			out = append(out, p)
		}
	}
	return out
}

// DocCount reports total documents in the index.
func (x *Index) DocCount() (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	n, err := x.idx.DocCount()
	return int(n), err
}

func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.idx.Close()
}
