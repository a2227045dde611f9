// Package projection converts entities into the flat value sets indexes
// consume. Builders are pure apart from user name lookups.
//
// Content has two builders: a published builder that emits only the
// published names and values, and a draft builder that emits the current
// state for indexes accepting unpublished content.
package projection
