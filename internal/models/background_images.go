package models

import (
	"path/filepath"

	"github.com/google/uuid"
)

const BackgroundWallpaperURLPrefix = "/background-wallpaper/"

type BackgroundImagesRecord struct {
	SchemaVersion *int                    `json:"schemaVersion"`
	Images        []BackgroundImageRecord `json:"images"`
}

type BackgroundImageRecord struct {
	Name        *string      `json:"name"`
	Source      *string      `json:"source"`
	Author      *string      `json:"author"`
	Link        *string      `json:"link"`
	OriginalURL *string      `json:"originalUrl"`
	License     *string      `json:"license"`
	FocalPoint  *PointRecord `json:"focalPoint"`
}

type Background struct {
	ImageFile   string
	Author      string
	Link        string
	OriginalURL string
	License     string
	FocalPoint  Point
}

// BackgroundImagesData is the plain (non sponsored) wallpaper package.
type BackgroundImagesData struct {
	URLPrefix   string
	Backgrounds []Background
}

func NewBackgroundImagesData(record *BackgroundImagesRecord, installDir string) *BackgroundImagesData {
	data := &BackgroundImagesData{}
	if record == nil || record.SchemaVersion == nil || *record.SchemaVersion != ExpectedSchemaVersion {
		return data
	}

	data.URLPrefix = BackgroundWallpaperURLPrefix
	for _, image := range record.Images {
		if image.Source == nil {
			continue
		}
		background := Background{
			ImageFile:   filepath.Join(installDir, *image.Source),
			Author:      stringOr(image.Author, ""),
			Link:        stringOr(image.Link, ""),
			OriginalURL: stringOr(image.OriginalURL, ""),
			License:     stringOr(image.License, ""),
		}
		if fp := image.FocalPoint; fp != nil {
			background.FocalPoint = Point{X: intOr(fp.X, 0), Y: intOr(fp.Y, 0)}
		}
		data.Backgrounds = append(data.Backgrounds, background)
	}
	return data
}

func (d *BackgroundImagesData) IsValid() bool {
	return d != nil && len(d.Backgrounds) > 0
}

func (d *BackgroundImagesData) GetBackgroundAt(index int) *Wallpaper {
	if !d.IsValid() || index < 0 || index >= len(d.Backgrounds) {
		return nil
	}
	background := d.Backgrounds[index]
	return &Wallpaper{
		WallpaperID:  uuid.NewString(),
		ImageURL:     d.URLPrefix + filepath.Base(background.ImageFile),
		ImagePath:    background.ImageFile,
		FocalPoint:   background.FocalPoint,
		Author:       background.Author,
		Link:         background.Link,
		IsBackground: true,
	}
}
