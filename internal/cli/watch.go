package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ecri0/sens-prism/internal/history"
	"github.com/ecri0/sens-prism/internal/logger"
	"github.com/ecri0/sens-prism/sens"
)

// settleDelay gives the writer time to finish before we read the file.
// Create events fire when the file appears, not when it is complete.
const settleDelay = 500 * time.Millisecond

var (
	watchExts []string
	watchTags []string
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and upload new files automatically",
	Long: `Watches a directory and uploads every newly created file. Uploads are
throttled the same way as batch uploads. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringArrayVar(&watchExts, "ext", []string{".pdf", ".txt", ".md", ".docx"}, "file extensions to upload (repeatable)")
	watchCmd.Flags().StringArrayVar(&watchTags, "tag", nil, "tag to attach to every upload (repeatable)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", dir)
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

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	cmd.Printf("Watching %s (extensions: %s). Ctrl-C to stop.\n", dir, strings.Join(watchExts, ", "))

	ctx := cmd.Context()
	limiter := rate.NewLimiter(rate.Every(uploadInterval), 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !watchableExt(event.Name) {
				logger.Debug("ignoring %s", event.Name)
				continue
			}
			if err := uploadWatched(ctx, cmd, client, hist, limiter, event.Name); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				logger.Warn("upload %s: %v", event.Name, err)
			}
		}
	}
}

func watchableExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range watchExts {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func uploadWatched(ctx context.Context, cmd *cobra.Command, client *sens.Client, hist *history.Store, limiter *rate.Limiter, path string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(settleDelay):
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}

	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	doc, err := client.UploadDocument(ctx, path, sens.UploadOptions{Tags: watchTags})
	if err != nil {
		return err
	}

	cmd.Printf("Uploaded %s as %s (%s)\n", path, doc.ID, doc.Status)

	if hist != nil {
		err := hist.RecordUpload(ctx, history.UploadRecord{
			DocumentID: doc.ID,
			Path:       path,
			Tags:       watchTags,
			UploadedAt: time.Now(),
		})
		if err != nil {
			logger.Warn("recording upload: %v", err)
		}
	}
	return nil
}
