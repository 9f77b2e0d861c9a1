// Package sens is the Go client for the Sens Prism document-understanding
// API. It covers the full API surface: uploading documents, polling their
// processing status, running natural-language queries against the indexed
// corpus, and retrieving the per-answer context rail.
//
// All heavy lifting (parsing, indexing, retrieval, answer generation) happens
// server-side. The client constructs requests, injects authentication, and
// decodes responses into typed records or a typed error.
//
// Basic usage:
//
//	client, err := sens.NewClient(sens.WithAPIKey("sens_sk_..."))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	doc, err := client.UploadDocument(ctx, "report.pdf", sens.UploadOptions{
//		Title: "Quarterly Report",
//		Tags:  []string{"finance"},
//	})
//
// Failures surface as *APIError values classified by kind; use the
// predicates (IsNotFound, IsRateLimited, ...) rather than matching on
// status codes.
package sens
