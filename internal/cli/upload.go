package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ecri0/sens-prism/internal/history"
	"github.com/ecri0/sens-prism/internal/logger"
	"github.com/ecri0/sens-prism/sens"
)

const (
	// uploadInterval spaces batch uploads to stay inside the free
	// plan's 10 requests/min.
	uploadInterval = 6 * time.Second

	// pollInterval is the delay between status checks with --wait.
	pollInterval = 2 * time.Second
)

var (
	uploadTitle       string
	uploadTags        []string
	uploadWait        bool
	uploadWaitTimeout time.Duration
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]...",
	Short: "Upload documents for processing",
	Long: `Upload one or more files to be parsed, indexed and made queryable.

Documents start in the "processing" state; use --wait to poll until they
are ready. Multiple files are uploaded with a client-side throttle.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadTitle, "title", "t", "", "document title (single file only)")
	uploadCmd.Flags().StringArrayVar(&uploadTags, "tag", nil, "tag to attach (repeatable)")
	uploadCmd.Flags().BoolVarP(&uploadWait, "wait", "w", false, "poll until each document is ready")
	uploadCmd.Flags().DurationVar(&uploadWaitTimeout, "wait-timeout", time.Minute, "maximum time to wait per document with --wait")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadTitle != "" && len(args) > 1 {
		return errors.New("--title applies to a single file")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	hist := openHistory()
	if hist != nil {
		defer hist.Close()
	}

	ctx := cmd.Context()
	limiter := rate.NewLimiter(rate.Every(uploadInterval), 1)

	for _, path := range args {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		logger.Request(http.MethodPost, client.BaseURL()+"/documents")
		doc, err := client.UploadDocument(ctx, path, sens.UploadOptions{
			Title: uploadTitle,
			Tags:  uploadTags,
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}

		cmd.Printf("Uploaded %s\n", path)
		cmd.Printf("  ID:     %s\n", doc.ID)
		cmd.Printf("  Status: %s\n", doc.Status)
		if doc.EstimatedReadyAt != "" {
			cmd.Printf("  ETA:    %s\n", doc.EstimatedReadyAt)
		}

		recordUpload(ctx, hist, doc, path)

		if uploadWait {
			final, err := waitForDocument(ctx, cmd, client, doc.ID)
			if err != nil {
				return err
			}
			cmd.Printf("  Ready:  %d pages, %d chunks, %d concepts\n",
				final.PageCount, final.ChunkCount, final.ConceptCount)
		}
	}

	return nil
}

// waitForDocument polls until the document leaves the processing state.
func waitForDocument(ctx context.Context, cmd *cobra.Command, client *sens.Client, id string) (*sens.Document, error) {
	deadline := time.Now().Add(uploadWaitTimeout)

	for {
		doc, err := client.GetDocument(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("poll %s: %w", id, err)
		}

		switch doc.Status {
		case sens.StatusReady:
			return doc, nil
		case sens.StatusFailed:
			return doc, fmt.Errorf("document %s failed processing", id)
		}

		if time.Now().After(deadline) {
			return doc, fmt.Errorf("timed out waiting for %s (still %s)", id, doc.Status)
		}

		logger.Debug("document %s still %s, polling again", id, doc.Status)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// recordUpload stores the upload locally; failures only warn.
func recordUpload(ctx context.Context, hist *history.Store, doc *sens.Document, path string) {
	if hist == nil {
		return
	}
	err := hist.RecordUpload(ctx, history.UploadRecord{
		DocumentID: doc.ID,
		Path:       path,
		Title:      uploadTitle,
		Tags:       uploadTags,
		UploadedAt: time.Now(),
	})
	if err != nil {
		logger.Warn("recording upload: %v", err)
	}
}
