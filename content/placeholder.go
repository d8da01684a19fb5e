package content

// Placeholder defaults
const (
	DefaultPlaceholderImage           = "https://via.placeholder.com/1x1"
	DefaultPlaceholderValue           = "_cockpitisnotset_"
	DefaultPlaceholderValueEmptyArray = "[]"
	PlaceholderEmptyObject            = "{}"
	placeholderLocationCoordinate     = 360
)

// Placeholders stand-ins for absent data. Every call returns a fresh value so
// callers may extend it without touching other nodes.
type Placeholders struct {
	Value      string
	EmptyArray string
	// ImageFileID id of the resolved placeholder image, empty if it could not be fetched
	ImageFileID string
}

// NewPlaceholders placeholders with the default sentinels
func NewPlaceholders(imageFileID string) *Placeholders {
	return &Placeholders{
		Value:       DefaultPlaceholderValue,
		EmptyArray:  DefaultPlaceholderValueEmptyArray,
		ImageFileID: imageFileID,
	}
}

func (p *Placeholders) fileRef() interface{} {
	if p.ImageFileID == "" {
		return nil
	}
	return p.ImageFileID
}

// Image stub for image, file and gallery fields
func (p *Placeholders) Image() map[string]interface{} {
	return map[string]interface{}{
		KeyIsSet:     false,
		KeyPath:      "",
		KeyLocalFile: p.fileRef(),
	}
}

// GalleryImage stub for a gallery element
func (p *Placeholders) GalleryImage() map[string]interface{} {
	img := p.Image()
	img[KeyMeta] = map[string]interface{}{"title": ""}
	return img
}

// Asset stub carrying the full shape of a cockpit asset
func (p *Placeholders) Asset() map[string]interface{} {
	return map[string]interface{}{
		KeyIsSet:      false,
		KeyPath:       "",
		KeyLocalFile:  p.fileRef(),
		"title":       "",
		"mime":        "",
		"description": "",
		"size":        "",
		"image":       false,
		"video":       false,
		"audio":       false,
		"archive":     false,
		"document":    false,
		"code":        false,
		"created":     0,
		"modified":    0,
		"_by":         "someone",
		KeyID:         "someid",
	}
}

// Location stub outside of the valid coordinate range
func (p *Placeholders) Location() map[string]interface{} {
	return map[string]interface{}{
		"lat": placeholderLocationCoordinate,
		"lng": placeholderLocationCoordinate,
	}
}
