package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/finbroker/internal/client/models"
	"github.com/dmitrijs2005/finbroker/internal/filex"
)

func (a *App) cmdDownload(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: download <id>")
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		log.Println(err.Error())
		return
	}

	data, fileName, err := a.uploads.Download(ctx, id)
	if err != nil {
		log.Printf("download failed: %s", err.Error())
		return
	}
	if fileName == "" {
		fileName = fmt.Sprintf("upload-%d", id)
	}

	dir, err := filex.EnsureSubDir("downloads")
	if err != nil {
		log.Printf("error preparing download directory: %s", err.Error())
		return
	}
	path := filepath.Join(dir, filepath.Base(fileName))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Printf("error saving file: %s", err.Error())
		return
	}
	fmt.Printf("Saved %d bytes to %s\n", len(data), path)
}

func (a *App) cmdAvatar(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: avatar <ref>")
		return
	}

	handle, err := a.cache.Resolve(ctx, args[0])
	if err != nil {
		log.Printf("error resolving resource: %s", err.Error())
		return
	}
	if handle == nil {
		fmt.Println("Empty reference.")
		return
	}
	data, ok := handle.Bytes()
	if !ok {
		fmt.Println("Resource handle already released, try again.")
		return
	}
	fmt.Printf("Resolved %s: %d bytes, %s (cache entries: %d)\n",
		args[0], len(data), handle.ContentType(), a.cache.Len())
}

func (a *App) cmdInbox(ctx context.Context) {
	summaries, err := a.watcher.Snapshot(ctx)
	if err != nil {
		log.Printf("error fetching moderation queue: %s", err.Error())
		return
	}
	a.updatePending(summaries)
	if len(summaries) == 0 {
		fmt.Println("Nothing awaiting moderation.")
		return
	}
	for _, s := range summaries {
		fmt.Printf("record %6d  %2d pending  last at %s\n", s.RecordID, s.PendingCount, s.LastPendingAt)
	}
}

func (a *App) updatePending(summaries []models.PendingSummary) {
	var total int64
	for _, s := range summaries {
		total += int64(s.PendingCount)
	}
	a.pending.Store(total)
}
