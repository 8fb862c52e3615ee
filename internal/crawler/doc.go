// Package crawler implements the crawl orchestration and aggregation engine: the URL
// frontier with its scope and dedup rules, the duplicate index, the aggregator with its
// completion protocol, and the Engine that drives fetch, parse and check collaborators
// through a bounded worker pool.
package crawler
