package sens

import "context"

// Asynchronous variants of the long-running operations. Each wrapper runs
// the blocking call in a background goroutine and delivers exactly one
// result on the returned channel, which is then closed. They add no new
// semantics: same error set, same single round trip, no cancellation
// beyond the supplied context.

// UploadResult carries the outcome of GoUploadDocument.
type UploadResult struct {
	Document *Document
	Err      error
}

// GoUploadDocument runs UploadDocument in the background. The returned
// channel is buffered; the result is delivered even if nobody is
// receiving yet.
func (c *Client) GoUploadDocument(ctx context.Context, path string, opts UploadOptions) <-chan UploadResult {
	ch := make(chan UploadResult, 1)
	go func() {
		defer close(ch)
		doc, err := c.UploadDocument(ctx, path, opts)
		ch <- UploadResult{Document: doc, Err: err}
	}()
	return ch
}

// QueryOutcome carries the outcome of GoQuery.
type QueryOutcome struct {
	Result *QueryResult
	Err    error
}

// GoQuery runs Query in the background.
func (c *Client) GoQuery(ctx context.Context, query string, opts QueryOptions) <-chan QueryOutcome {
	ch := make(chan QueryOutcome, 1)
	go func() {
		defer close(ch)
		result, err := c.Query(ctx, query, opts)
		ch <- QueryOutcome{Result: result, Err: err}
	}()
	return ch
}
