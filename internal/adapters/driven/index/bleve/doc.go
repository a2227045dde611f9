// Package bleve provides a driven.Index backed by a bleve full-text index,
// either on disk or in memory.
//
// Documents carry two hidden fields next to their value set fields:
// __category and __pathIds. The latter holds every id on the document's
// path and drives descendant deletes.
package bleve
