package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Uploader registers files as stickers in the bot's sticker set. Only
// stickers that live in a set can be answered as cached inline results,
// so each upload is followed by an add-to-set and the reference stored is
// the set's copy.
type Uploader struct {
	api     *tgbotapi.BotAPI
	owner   int64
	root    string
	setName string
	created bool
}

// NewUploader creates an uploader for the bot's sticker set. Sticker set
// names are namespaced by bot, "<set>_by_<botname>".
func (b *Bot) NewUploader(root string) *Uploader {
	return &Uploader{
		api:     b.api,
		owner:   b.cfg.Owner,
		root:    root,
		setName: fmt.Sprintf("%s_by_%s", b.cfg.StickerSet, b.api.Self.UserName),
	}
}

// Upload pushes one file and returns the file id of its copy in the
// sticker set. Calls must stay sequential: the set assigns positions by
// arrival order and the newest sticker is read back from the tail.
func (u *Uploader) Upload(ctx context.Context, path, label string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	uploaded, err := u.uploadFile(filepath.Join(u.root, path))
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}

	if err := u.addToSet(uploaded); err != nil {
		return "", fmt.Errorf("add %s to set: %w", path, err)
	}

	set, err := u.api.GetStickerSet(tgbotapi.GetStickerSetConfig{Name: u.setName})
	if err != nil {
		return "", fmt.Errorf("read back sticker set: %w", err)
	}
	if len(set.Stickers) == 0 {
		return "", fmt.Errorf("sticker set %s is empty after upload", u.setName)
	}

	fileID := set.Stickers[len(set.Stickers)-1].FileID
	slog.Debug("uploaded sticker", "file", path, "file_id", fileID)
	return fileID, nil
}

func (u *Uploader) uploadFile(path string) (string, error) {
	resp, err := u.api.Request(tgbotapi.UploadStickerConfig{
		UserID:     u.owner,
		PNGSticker: tgbotapi.FilePath(path),
	})
	if err != nil {
		return "", err
	}

	var file tgbotapi.File
	if err := json.Unmarshal(resp.Result, &file); err != nil {
		return "", fmt.Errorf("decode uploaded file: %w", err)
	}
	return file.FileID, nil
}

func (u *Uploader) addToSet(fileID string) error {
	if !u.created {
		// Creating an existing set fails; treat that as "already there"
		// and fall through to a plain add.
		_, err := u.api.Request(tgbotapi.NewStickerSetConfig{
			UserID:     u.owner,
			Name:       u.setName,
			Title:      u.setName,
			PNGSticker: tgbotapi.FileID(fileID),
			Emojis:     "😼",
		})
		u.created = true
		if err == nil {
			return nil
		}
	}

	_, err := u.api.Request(tgbotapi.AddStickerConfig{
		UserID:     u.owner,
		Name:       u.setName,
		PNGSticker: tgbotapi.FileID(fileID),
		Emojis:     "😼",
	})
	return err
}
