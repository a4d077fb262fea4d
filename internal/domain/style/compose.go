package style

import (
	"fmt"
	"slices"
	"strings"
)

// Field is a composable section of the searchable text.
type Field string

// Composable fields.
const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldLength      Field = "length"
	FieldTexture     Field = "texture"
	FieldThickness   Field = "thickness"
	FieldMaintenance Field = "maintenance"
	FieldStylist     Field = "stylist"
	FieldTags        Field = "tags"
)

// DefaultFields is the composition order used when none is configured.
var DefaultFields = []Field{
	FieldTitle, FieldDescription,
	FieldLength, FieldTexture, FieldThickness, FieldMaintenance,
	FieldStylist, FieldTags,
}

// Metadata keys attached to every index entry.
const (
	MetaStyleID     = "style_id"
	MetaTitle       = "title"
	MetaDescription = "description"
	MetaStylistName = "stylist_name"
	MetaTags        = "tags"
)

// Document is the searchable projection of a style: text for embedding plus metadata for the index.
type Document struct {
	Text     string
	Metadata map[string]any
}

// Composer renders styles into searchable documents.
type Composer struct {
	fields []Field
}

// ParseFields validates configured field names. An empty list yields DefaultFields.
func ParseFields(names []string) ([]Field, error) {
	if len(names) == 0 {
		return slices.Clone(DefaultFields), nil
	}
	fields := make([]Field, 0, len(names))
	for _, n := range names {
		f := Field(strings.ToLower(strings.TrimSpace(n)))
		if !slices.Contains(DefaultFields, f) {
			return nil, fmt.Errorf("unknown composer field %q", n)
		}
		if slices.Contains(fields, f) {
			return nil, fmt.Errorf("duplicate composer field %q", n)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// NewComposer creates a Composer rendering the given field names in order.
func NewComposer(names []string) (*Composer, error) {
	fields, err := ParseFields(names)
	if err != nil {
		return nil, err
	}
	return &Composer{fields: fields}, nil
}

// Fields returns the composition order.
func (c *Composer) Fields() []Field { return c.fields }

// Compose renders s. Pure and deterministic: the same style always yields the same document.
func (c *Composer) Compose(s Style) Document {
	parts := make([]string, 0, len(c.fields))
	for _, f := range c.fields {
		if seg := segment(f, &s); seg != "" {
			parts = append(parts, seg)
		}
	}
	return Document{
		Text:     strings.Join(parts, " "),
		Metadata: Metadata(s),
	}
}

// Metadata mirrors the raw record, independent of the composed field list.
func Metadata(s Style) map[string]any {
	tags := slices.Clone(s.tags)
	if tags == nil {
		tags = []string{}
	}
	slices.Sort(tags)
	return map[string]any{
		MetaStyleID:     s.id,
		MetaTitle:       s.title,
		MetaDescription: s.description,
		AttrLength:      string(s.length),
		AttrTexture:     string(s.texture),
		AttrThickness:   string(s.thickness),
		AttrMaintenance: string(s.maintenance),
		MetaStylistName: s.stylistName,
		MetaTags:        tags,
	}
}

func segment(f Field, s *Style) string {
	switch f {
	case FieldTitle:
		return strings.TrimSpace(s.title)
	case FieldDescription:
		return strings.TrimSpace(s.description)
	case FieldLength:
		return labeled("Length", s.length.Label())
	case FieldTexture:
		return labeled("Texture", s.texture.Label())
	case FieldThickness:
		return labeled("Thickness", s.thickness.Label())
	case FieldMaintenance:
		return labeled("Maintenance", s.maintenance.Label())
	case FieldStylist:
		return labeled("Stylist", strings.TrimSpace(s.stylistName))
	case FieldTags:
		tags := slices.Clone(s.tags)
		slices.Sort(tags)
		return labeled("Tags", strings.Join(tags, ", "))
	}
	return ""
}

func labeled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}
