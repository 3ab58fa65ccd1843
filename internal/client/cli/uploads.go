package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/finbroker/internal/client/models"
)

func parseUploadContext(s string) (models.UploadContext, error) {
	switch models.UploadContext(s) {
	case models.UploadContextAvatar, models.UploadContextDocument, models.UploadContextMessage:
		return models.UploadContext(s), nil
	}
	return "", fmt.Errorf("unknown upload context: %s (want avatar, document or message)", s)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid upload id: %s", s)
	}
	return id, nil
}

func (a *App) cmdUpload(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: upload <ctx> <path>")
		return
	}
	uploadCtx, err := parseUploadContext(args[0])
	if err != nil {
		log.Println(err.Error())
		return
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		log.Printf("error reading file: %s", err.Error())
		return
	}
	up, err := a.uploads.Stage(ctx, filepath.Base(args[1]), data, uploadCtx)
	if err != nil {
		log.Printf("upload failed: %s", err.Error())
		return
	}
	fmt.Printf("Staged upload %d (%s), expires at %s. Use 'confirm %d' to keep it.\n",
		up.ID, up.FileName, up.ExpiresAt, up.ID)
}

func (a *App) cmdReplace(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: replace <id> <path>")
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		log.Println(err.Error())
		return
	}
	var up models.Upload
	if err := a.gateway.GetJSON(ctx, fmt.Sprintf("/uploads/%d", id), &up); err != nil {
		log.Printf("error loading upload %d: %s", id, err.Error())
		return
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		log.Printf("error reading file: %s", err.Error())
		return
	}
	if err := a.uploads.Replace(ctx, &up, filepath.Base(args[1]), data); err != nil {
		log.Printf("replace failed: %s", err.Error())
		return
	}
	fmt.Printf("Upload %d replaced with %s.\n", id, filepath.Base(args[1]))
}

func (a *App) cmdConfirm(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: confirm <id>")
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		log.Println(err.Error())
		return
	}
	if err := a.uploads.Confirm(ctx, id); err != nil {
		log.Printf("confirm failed: %s", err.Error())
		return
	}
	fmt.Printf("Upload %d confirmed.\n", id)
}

func (a *App) cmdRemove(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: remove <id>")
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		log.Println(err.Error())
		return
	}
	if err := a.uploads.Remove(ctx, id); err != nil {
		log.Printf("remove failed: %s", err.Error())
		return
	}
	fmt.Printf("Upload %d removed.\n", id)
}

func (a *App) cmdList(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: list <ctx>")
		return
	}
	uploadCtx, err := parseUploadContext(args[0])
	if err != nil {
		log.Println(err.Error())
		return
	}
	uploads, err := a.uploads.List(ctx, uploadCtx)
	if err != nil {
		log.Printf("list failed: %s", err.Error())
		return
	}
	if len(uploads) == 0 {
		fmt.Println("No uploads.")
		return
	}
	for _, up := range uploads {
		state := "confirmed"
		if up.IsTemporary {
			state = fmt.Sprintf("staged until %s", up.ExpiresAt)
		}
		fmt.Printf("%6d  %-30s %8d bytes  %s\n", up.ID, up.FileName, up.Size, state)
	}
}
