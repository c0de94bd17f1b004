// Package render provides helper functions for DOCX template rendering.
//
// The helpers work on ooxml token streams and never call back into the
// report package, so they can be tested on their own.
//
//   - helpers.go: merging of tags that Word split across several runs
//   - parts.go: splitting a normalized stream into XML, text and tag parts
//   - control.go: tag classification and section pairing
//   - structure.go: locating tags in the paragraph/table structure
//
// Word frequently breaks a typed tag such as {first_name} into several runs
// ("{", "first_", "name}") because of spell checking or editing history.
// NormalizeTags moves every tag into the run where it starts before any
// other processing happens.
package render
