package qc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/datatypes"

	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/storage"
)

// CreateDrawingInput is the manager's new-drawing form.
type CreateDrawingInput struct {
	Code        string `validate:"required,max=64"`
	Name        string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	Image       []byte `validate:"required"`
}

func (s *Service) ListDrawings(ctx context.Context, archived bool) ([]models.Drawing, error) {
	return s.store.ListDrawings(ctx, archived)
}

// GetDrawing returns the drawing with its dimensions ordered by label.
func (s *Service) GetDrawing(ctx context.Context, id string) (*models.Drawing, error) {
	return s.store.GetDrawing(ctx, id)
}

// CreateDrawing uploads the image, stores a thumbnail and inserts the record.
// If the insert fails the uploaded blobs are removed again.
func (s *Service) CreateDrawing(ctx context.Context, in CreateDrawingInput) (*models.Drawing, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}

	info, err := storage.Probe(in.Image)
	if err != nil {
		return nil, invalid("image", err.Error())
	}

	key := storage.DrawingKey(in.Code, info.Ext, s.now())
	if err := s.blobs.Put(ctx, key, bytes.NewReader(in.Image), info.ContentType); err != nil {
		return nil, fmt.Errorf("upload drawing image: %w", err)
	}
	uploaded := []string{key}

	meta := models.ImageMeta{
		Width:       info.Width,
		Height:      info.Height,
		ContentType: info.ContentType,
		Size:        int64(len(in.Image)),
	}
	if thumb, err := storage.Thumbnail(in.Image); err != nil {
		log.Printf("⚠️  Thumbnail for %s failed: %v", key, err)
	} else {
		thumbKey := storage.ThumbKey(key)
		if err := s.blobs.Put(ctx, thumbKey, bytes.NewReader(thumb), "image/jpeg"); err != nil {
			log.Printf("⚠️  Thumbnail upload for %s failed: %v", key, err)
		} else {
			meta.ThumbPath = thumbKey
			meta.ThumbURL = s.blobs.PublicURL(thumbKey)
			uploaded = append(uploaded, thumbKey)
		}
	}

	d := &models.Drawing{
		Code:      in.Code,
		Name:      in.Name,
		ImagePath: key,
		ImageURL:  s.blobs.PublicURL(key),
		ImageMeta: datatypes.NewJSONType(meta),
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		d.Description = &desc
	}

	if err := s.store.CreateDrawing(ctx, d); err != nil {
		for _, k := range uploaded {
			if rmErr := s.blobs.Remove(ctx, k); rmErr != nil {
				log.Printf("⚠️  Could not remove orphaned blob %s: %v", k, rmErr)
			}
		}
		return nil, fmt.Errorf("create drawing: %w", err)
	}

	log.Printf("📐 Drawing %s created (%dx%d)", d.Code, meta.Width, meta.Height)
	s.events.Publish(EventDrawingChanged, map[string]string{"id": d.ID})
	return d, nil
}

// SetDrawingArchived hides or restores a drawing. Archived drawings cannot
// receive new work orders but keep working for existing ones.
func (s *Service) SetDrawingArchived(ctx context.Context, id string, archived bool) (*models.Drawing, error) {
	if err := s.store.SetDrawingArchived(ctx, id, archived); err != nil {
		return nil, err
	}
	s.events.Publish(EventDrawingChanged, map[string]string{"id": id})
	return s.store.GetDrawing(ctx, id)
}

func (s *Service) DrawingReferences(ctx context.Context, id string) (int64, error) {
	if _, err := s.store.GetDrawing(ctx, id); err != nil {
		return 0, err
	}
	return s.store.CountDrawingReferences(ctx, id)
}

// DeleteResult reports what a drawing deletion touched.
type DeleteResult struct {
	DetachedWorkOrders int64 `json:"detachedWorkOrders"`
	BlobRemoved        bool  `json:"blobRemoved"`
}

// DeleteDrawing removes a drawing and its dimensions. Work orders pointing at
// it are detached; that needs confirm=true. A failed blob removal is only logged.
func (s *Service) DeleteDrawing(ctx context.Context, id string, confirm bool) (DeleteResult, error) {
	var res DeleteResult

	d, err := s.store.GetDrawing(ctx, id)
	if err != nil {
		return res, err
	}
	refs, err := s.store.CountDrawingReferences(ctx, id)
	if err != nil {
		return res, err
	}
	if refs > 0 && !confirm {
		return res, &ReferencedError{Count: refs}
	}

	res.DetachedWorkOrders, err = s.store.DeleteDrawing(ctx, id)
	if err != nil {
		return res, fmt.Errorf("delete drawing: %w", err)
	}

	res.BlobRemoved = true
	keys := []string{d.ImagePath}
	if tp := d.ImageMeta.Data().ThumbPath; tp != "" {
		keys = append(keys, tp)
	}
	for _, k := range keys {
		if err := s.blobs.Remove(ctx, k); err != nil && !errors.Is(err, storage.ErrNotExist) {
			log.Printf("⚠️  Drawing %s deleted but blob %s was not removed: %v", d.Code, k, err)
			res.BlobRemoved = false
		}
	}

	log.Printf("🗑️  Drawing %s deleted (%d OP(s) detached)", d.Code, res.DetachedWorkOrders)
	s.events.Publish(EventDrawingChanged, map[string]string{"id": id})
	return res, nil
}
