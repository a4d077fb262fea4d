package chi

import (
	"time"

	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

type errorJSON struct {
	Error string `json:"error"`
}

type healthCheckJSON struct {
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type healthJSON struct {
	Status string                     `json:"status"`
	Checks map[string]healthCheckJSON `json:"checks"`
}

// styleJSON renders categorical attributes by display label with the raw code alongside.
type styleJSON struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Length           string    `json:"length"`
	LengthCode       string    `json:"length_code"`
	Texture          string    `json:"texture"`
	TextureCode      string    `json:"texture_code"`
	Thickness        string    `json:"thickness"`
	ThicknessCode    string    `json:"thickness_code"`
	Maintenance      string    `json:"maintenance"`
	MaintenanceCode  string    `json:"maintenance_code"`
	StylistName      string    `json:"stylist_name"`
	Tags             []string  `json:"tags"`
	ClientPermission bool      `json:"client_permission"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type styleListJSON struct {
	Items  []styleJSON `json:"items"`
	Total  int         `json:"total"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
}

// styleRequest is the body of POST and PUT /api/v1/styles. Enum fields take raw codes.
type styleRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Length           string   `json:"length"`
	Texture          string   `json:"texture"`
	Thickness        string   `json:"thickness"`
	Maintenance      string   `json:"maintenance"`
	StylistName      string   `json:"stylist_name"`
	Tags             []string `json:"tags"`
	ClientPermission *bool    `json:"client_permission"`
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

type searchRequest struct {
	Query   string            `json:"query"`
	TopK    int               `json:"top_k"`
	Filters map[string]string `json:"filters"`
}

type searchResponse struct {
	Query        string      `json:"query"`
	Results      []styleJSON `json:"results"`
	SearchMethod string      `json:"search_method"`
	Count        int         `json:"count"`
	Message      string      `json:"message"`
}

func styleToJSON(s style.Style) styleJSON {
	tags := s.Tags()
	if tags == nil {
		tags = []string{}
	}
	return styleJSON{
		ID:               s.ID(),
		Title:            s.Title(),
		Description:      s.Description(),
		Length:           s.Length().Label(),
		LengthCode:       string(s.Length()),
		Texture:          s.Texture().Label(),
		TextureCode:      string(s.Texture()),
		Thickness:        s.Thickness().Label(),
		ThicknessCode:    string(s.Thickness()),
		Maintenance:      s.Maintenance().Label(),
		MaintenanceCode:  string(s.Maintenance()),
		StylistName:      s.StylistName(),
		Tags:             tags,
		ClientPermission: s.ClientPermission(),
		CreatedAt:        s.CreatedAt(),
		UpdatedAt:        s.UpdatedAt(),
	}
}

func stylesToJSON(ss []style.Style) []styleJSON {
	out := make([]styleJSON, len(ss))
	for i, s := range ss {
		out[i] = styleToJSON(s)
	}
	return out
}

// toAttributes maps a request body onto style attributes. Client permission defaults to true.
func (r styleRequest) toAttributes() style.Attributes {
	permission := true
	if r.ClientPermission != nil {
		permission = *r.ClientPermission
	}
	return style.Attributes{
		Title:            r.Title,
		Description:      r.Description,
		Length:           style.Length(r.Length),
		Texture:          style.Texture(r.Texture),
		Thickness:        style.Thickness(r.Thickness),
		Maintenance:      style.Maintenance(r.Maintenance),
		StylistName:      r.StylistName,
		Tags:             r.Tags,
		ClientPermission: permission,
	}
}
