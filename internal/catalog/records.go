// Package catalog declares the catalog resource types handled by the admin:
// their records, form validation, and the REST endpoints each one uses.
package catalog

// Record is implemented by every catalog record.
type Record interface {
	RecordID() int64
	RecordTitle() string
}

// LookupItem is the {id, title} projection used to fill relation pickers.
type LookupItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Content holds the fields shared by every catalog record.
type Content struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Keywords    string `json:"keywords"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Thumbnail   string `json:"thumbnail"`
	Image       string `json:"image"`
	Status      Status `json:"status"`
}

// RecordID implements Record.
func (c Content) RecordID() int64 { return c.ID }

// RecordTitle implements Record.
func (c Content) RecordTitle() string { return c.Title }

// Tags returns the keywords as a tag list.
func (c Content) Tags() []string { return SplitKeywords(c.Keywords) }

// Brand is a manufacturer. Models is read-only and filled by the API.
type Brand struct {
	Content
	Models []LookupItem `json:"models,omitempty"`
}

// Model belongs to one brand, carries many ratings and owns one gallery.
type Model struct {
	Content
	BrandID   int64        `json:"brandId"`
	Brand     *LookupItem  `json:"brand,omitempty"`
	SubTitle  string       `json:"subTitle"`
	Price     string       `json:"price"`
	Rate      float64      `json:"rate"`
	Choice    bool         `json:"choice"`
	Highs     string       `json:"highs"`
	Lows      string       `json:"lows"`
	Verdict   string       `json:"verdict"`
	Ratings   []LookupItem `json:"ratings,omitempty"`
	RatingIDs []int64      `json:"ratingIds,omitempty"`
	Gallery   *Gallery     `json:"gallery,omitempty"`
}

// Rating is an editorial ranking that lists many models.
type Rating struct {
	Content
	Models   []LookupItem `json:"models,omitempty"`
	ModelIDs []int64      `json:"modelIds,omitempty"`
}

// Gallery is the image set of a single model.
type Gallery struct {
	Content
	ModelID int64       `json:"modelId"`
	Model   *LookupItem `json:"model,omitempty"`
}

// SpecItem is one name/value row of a spec section.
type SpecItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SpecSection groups spec rows under a heading.
type SpecSection struct {
	Title string     `json:"title"`
	Items []SpecItem `json:"items"`
}

// Spec is the technical specification sheet of a model.
type Spec struct {
	Content
	ModelID  int64         `json:"modelId"`
	Model    *LookupItem   `json:"model,omitempty"`
	Sections []SpecSection `json:"sections"`
}
