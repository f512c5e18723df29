// Package ingestion loads link graph snapshots into a page repository.
//
// A snapshot is a JSON Lines file with one page per line:
//
//	{"title":"Cat","links":[{"target":"Mammal","text":"mammal","section":""}]}
//	{"title":"House cat","redirect":"Cat"}
//
// Lines with a redirect field record an alternate title and carry no links.
// Titles and link targets are normalized before they are stored.
//
// The Pipeline reads the snapshot sequentially and writes batches concurrently
// using a worker pool. Malformed lines are logged and counted; they do not stop
// the load unless a limit is configured.
package ingestion
