// Package validation decides whether a value set may enter an index and
// strips what the index must not receive.
//
// Validators run a fixed sequence of rules. Each rule may reject the
// document (Failed, which ends validation), mutate it (Filtered) or leave
// it alone. Data-shape problems are results, never errors; only a failing
// protection lookup is returned as an error.
//
// Rule order for content and media:
//
//  1. item type inclusion/exclusion
//  2. path, recycle bin and parent restriction
//  3. publication (content in published-only indexes)
//  4. access protection (content in indexes excluding protected content)
//  5. field inclusion/exclusion
//
// Members only run rules 1 and 5.
package validation
