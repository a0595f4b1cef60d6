// Package artifact stores the documents a run produces.
//
// Store is keyed by run id and artifact id and holds raw bytes; InMemoryStore
// is the process local implementation. RenderMarkdown turns a finished run
// state into a Markdown document with a YAML front matter header, and
// ParseMarkdown reads such a document back.
//
// Callers should depend on the Store interface rather than the concrete
// type so they can substitute alternative persistence layers in tests.
package artifact
