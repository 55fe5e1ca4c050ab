package render

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"
	"github.com/google/uuid"

	"github.com/yornfifty/intentkit-chat/core/chat"
)

// Category is the media class inferred for an attachment or URL.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryAudio Category = "audio"
	CategoryFile  Category = "file"
)

// Extension table driving category inference. ogg is ambiguous between audio
// and video containers; it resolves to video here and that policy is relied
// upon elsewhere, do not change it.
var categoryByExt = map[string]Category{
	"jpg":  CategoryImage,
	"jpeg": CategoryImage,
	"png":  CategoryImage,
	"gif":  CategoryImage,
	"webp": CategoryImage,
	"bmp":  CategoryImage,
	"svg":  CategoryImage,
	"mp4":  CategoryVideo,
	"webm": CategoryVideo,
	"ogg":  CategoryVideo,
	"mp3":  CategoryAudio,
	"wav":  CategoryAudio,
	"aac":  CategoryAudio,
}

var mimeByExt = map[string]string{
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogg":  "video/ogg",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"aac":  "audio/aac",
}

// ResolveCategory infers a media category from a URL's extension, ignoring
// query strings and fragments. No URL, or an unknown extension, means file.
func ResolveCategory(rawURL string) Category {
	if rawURL == "" {
		return CategoryFile
	}
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(trimmed), "."))
	if c, ok := categoryByExt[ext]; ok {
		return c
	}
	return CategoryFile
}

// Preview is a built attachment view. AudioID is set only for audio
// previews; it is the identifier the autoplay coordinator tracks.
type Preview struct {
	Category Category
	Node     elem.Node
	AudioID  string
}

// ResolvePreview builds the preview artifact for an attachment. The declared
// type wins unless it is absent or the generic "file", in which case the
// category is re-derived from the URL.
func ResolvePreview(att chat.Attachment) Preview {
	cat := effectiveCategory(att)

	switch cat {
	case CategoryImage:
		return Preview{
			Category: cat,
			Node: elem.Img(attrs.Props{
				attrs.Src:   att.URL,
				attrs.Alt:   attachmentName(att),
				attrs.Class: "attachment attachment-image",
			}),
		}
	case CategoryVideo:
		return Preview{
			Category: cat,
			Node: elem.Video(attrs.Props{
				attrs.Controls: "true",
				attrs.Preload:  "metadata",
				attrs.Class:    "attachment attachment-video",
			}, elem.Source(attrs.Props{
				attrs.Src:  att.URL,
				attrs.Type: attachmentMime(att),
			})),
		}
	case CategoryAudio:
		id := newAudioID()
		return Preview{
			Category: cat,
			AudioID:  id,
			Node: elem.Audio(attrs.Props{
				attrs.ID:       id,
				attrs.Controls: "true",
				attrs.Preload:  "metadata",
				attrs.Class:    "attachment attachment-audio",
			}, elem.Source(attrs.Props{
				attrs.Src:  att.URL,
				attrs.Type: attachmentMime(att),
			})),
		}
	}

	name := attachmentName(att)
	href := att.URL
	if href == "" {
		href = "#"
	}
	return Preview{
		Category: CategoryFile,
		Node: elem.A(attrs.Props{
			attrs.Href:     href,
			attrs.Target:   "_blank",
			attrs.Title:    name,
			attrs.Download: name,
			attrs.Class:    "attachment attachment-file",
		}, elem.Text(name)),
	}
}

func effectiveCategory(att chat.Attachment) Category {
	switch Category(att.Type) {
	case CategoryImage, CategoryVideo, CategoryAudio:
		return Category(att.Type)
	case "", CategoryFile:
		return ResolveCategory(att.URL)
	}
	return CategoryFile
}

func attachmentName(att chat.Attachment) string {
	if att.Name != "" {
		return att.Name
	}
	if att.URL != "" {
		trimmed := att.URL
		if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
			trimmed = trimmed[:i]
		}
		if base := path.Base(trimmed); base != "." && base != "/" {
			return base
		}
	}
	return "attachment"
}

func attachmentMime(att chat.Attachment) string {
	if att.MimeType != "" {
		return att.MimeType
	}
	trimmed := att.URL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(trimmed), "."))
	if m, ok := mimeByExt[ext]; ok {
		return m
	}
	return ""
}

// newAudioID mints a fresh identifier for a rendered audio element so each
// one gets at most one autoplay attempt.
func newAudioID() string {
	return fmt.Sprintf("audio_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}
