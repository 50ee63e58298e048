package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"backoffice/internal/adapters/marketplace"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/record"
	"backoffice/internal/domain/session"
)

// MaxImageBytes caps uploaded image size.
const MaxImageBytes = 5 << 20

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

var (
	ErrUnsupportedImage = errors.New("only png, jpg, gif and webp images are accepted")
	ErrImageTooLarge    = errors.New("image exceeds 5 MB")
)

// ImageUploader stores an image and returns its reference.
type ImageUploader interface {
	UploadImage(ctx context.Context, filename string, r io.Reader) (record.Image, error)
}

// ImageField is the form that receives the uploaded reference.
type ImageField interface {
	ID() record.ID
	SetImage(name string, img record.Image) error
}

// UploadImageInput carries input for the upload orchestrator.
type UploadImageInput struct {
	Actor    session.User
	Entity   string
	Field    string
	Filename string
	Size     int64
	Content  io.Reader
	Form     ImageField
	Request  Request
}

// UploadImageDeps holds dependencies for UploadImage.
type UploadImageDeps struct {
	Uploader   ImageUploader
	AuditStore AuditRecorder // optional
	Logger     *zap.Logger
}

// ExecuteUploadImage uploads an image and stores its reference in a form field.
// PRE: input.Form is editable and input.Field is an image field
// POST: on success the field holds the reference and is touched; the form is
// not submitted
func ExecuteUploadImage(ctx context.Context, input UploadImageInput, deps UploadImageDeps) (record.Image, error) {
	log := orNop(deps.Logger)
	if !imageExtensions[strings.ToLower(filepath.Ext(input.Filename))] {
		return record.Image{}, ErrUnsupportedImage
	}
	if input.Size > MaxImageBytes {
		return record.Image{}, ErrImageTooLarge
	}

	img, err := deps.Uploader.UploadImage(marketplace.WithActor(ctx, input.Actor.Email),
		filepath.Base(input.Filename), io.LimitReader(input.Content, MaxImageBytes+1))
	if err != nil {
		log.Info("image_upload_failed", zap.String("entity", input.Entity), zap.String("file", input.Filename), zap.Error(err))
		return record.Image{}, err
	}
	if err := input.Form.SetImage(input.Field, img); err != nil {
		return record.Image{}, fmt.Errorf("set %s: %w", input.Field, err)
	}

	recordAudit(ctx, deps.AuditStore, log,
		newEvent(input.Actor, audit.CategoryUpload, audit.ActionUpload, input.Request).
			WithResource(input.Entity, string(input.Form.ID())).
			WithDescription(input.Field+" uploaded as "+img.Key))
	return img, nil
}
