// Package types defines the data model shared by every stage of the
// retrieval fusion pipeline: candidates, their source tags, and the graph
// domain rows they originate from.
package types
