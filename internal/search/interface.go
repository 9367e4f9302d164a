package search

import "github.com/pders01/blogr/internal/storage"

// Matcher filters a collection by a search term. Results keep the order of
// the input collection.
type Matcher interface {
	Match(posts []*storage.Post, term string) []*storage.Post
}

// CollectionListener can be implemented by matchers that maintain an
// index and want to be told when the collection changes.
type CollectionListener interface {
	OnCollection(posts []*storage.Post)
}
