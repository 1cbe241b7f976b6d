// Package artifact persists review reports as JSON files.
//
// Core types:
//   - Writer: writes code_review_<ticket>.json atomically, lists and loads
//     saved reports, and prunes old ones
//
// Example usage:
//
//	w := artifact.NewWriter(afero.NewOsFs(), "reports")
//	name, content, err := w.WriteReport(ctx, "REV-42", report)
//	// name == "code_review_REV-42.json"; content is attached to the ticket
package artifact
