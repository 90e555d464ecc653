package catalog

import (
	"errors"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	errBlank        = validation.NewError("validation_blank", "cannot be blank")
	errFewTags      = validation.NewError("validation_few_tags", "must have at least 2 tags")
	errEmptyTag     = validation.NewError("validation_empty_tag", "cannot have empty tags")
	errHalfStepRate = validation.NewError("validation_rate_step", "must be a multiple of 0.5")
)

// text is the rule set of every free-text form field.
var text = []validation.Rule{validation.By(notBlank), validation.RuneLength(2, 0)}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}

func keywordRule(value any) error {
	s, _ := value.(string)
	if s == "" {
		return errFewTags
	}
	tags := strings.Split(s, ",")
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			return errEmptyTag
		}
	}
	if len(tags) < 2 {
		return errFewTags
	}
	return nil
}

func halfStep(value any) error {
	f, _ := value.(float64)
	if f*2 != math.Trunc(f*2) {
		return errHalfStepRate
	}
	return nil
}

var statusRule = validation.In(StatusProcessing, StatusPublished, StatusWarning, StatusError)

// Validate checks the fields every editor shares.
func (c Content) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, text...),
		validation.Field(&c.Slug, text...),
		validation.Field(&c.Keywords, validation.By(keywordRule)),
		validation.Field(&c.Description, text...),
		validation.Field(&c.Content, text...),
		validation.Field(&c.Thumbnail, text...),
		validation.Field(&c.Image, text...),
		validation.Field(&c.Status, statusRule),
	)
}

// Validate implements validation.Validatable.
func (b Brand) Validate() error {
	return b.Content.Validate()
}

// Validate implements validation.Validatable.
func (m Model) Validate() error {
	return merge(
		m.Content.Validate(),
		validation.ValidateStruct(&m,
			validation.Field(&m.BrandID, validation.Required),
			validation.Field(&m.SubTitle, text...),
			validation.Field(&m.Price, text...),
			validation.Field(&m.Rate, validation.Min(0.0), validation.Max(5.0), validation.By(halfStep)),
			validation.Field(&m.Highs, text...),
			validation.Field(&m.Lows, text...),
			validation.Field(&m.Verdict, text...),
			validation.Field(&m.Gallery, validation.By(nestedGallery), validation.Skip),
		),
	)
}

// nestedGallery validates the gallery edited inline on the model form,
// which only exposes title, slug, keywords and description.
func nestedGallery(value any) error {
	g, _ := value.(*Gallery)
	if g == nil {
		return nil
	}
	return validation.ValidateStruct(g,
		validation.Field(&g.Title, text...),
		validation.Field(&g.Slug, text...),
		validation.Field(&g.Keywords, validation.By(keywordRule)),
		validation.Field(&g.Description, text...),
		validation.Field(&g.Status, statusRule),
	)
}

// Validate implements validation.Validatable.
func (r Rating) Validate() error {
	return r.Content.Validate()
}

// Validate implements validation.Validatable.
func (g Gallery) Validate() error {
	return merge(
		g.Content.Validate(),
		validation.ValidateStruct(&g, validation.Field(&g.ModelID, validation.Required)),
	)
}

// Validate implements validation.Validatable.
func (s Spec) Validate() error {
	return merge(
		s.Content.Validate(),
		validation.ValidateStruct(&s, validation.Field(&s.ModelID, validation.Required)),
	)
}

// FieldErrors flattens a validation error into field → message pairs keyed
// by JSON field name. Nested errors are joined with a dot. It returns nil
// when err carries no field errors.
func FieldErrors(err error) map[string]string {
	var ve validation.Errors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string)
	flatten("", ve, out)
	return out
}

func flatten(prefix string, ve validation.Errors, out map[string]string) {
	for field, err := range ve {
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(key, nested, out)
			continue
		}
		out[key] = err.Error()
	}
}

func merge(errs ...error) error {
	out := validation.Errors{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve validation.Errors
		if !errors.As(err, &ve) {
			return err
		}
		for k, v := range ve {
			out[k] = v
		}
	}
	return out.Filter()
}
