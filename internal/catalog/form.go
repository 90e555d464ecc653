package catalog

// Form is implemented by records edited in admin forms. Methods return
// modified copies.
type Form[R any] interface {
	Record
	Validate() error
	// Normalized fills form defaults: processing status and a slug derived
	// from the title when none was typed.
	Normalized() R
	WithStatus(Status) R
}

var (
	_ Form[Brand]   = Brand{}
	_ Form[Model]   = Model{}
	_ Form[Rating]  = Rating{}
	_ Form[Gallery] = Gallery{}
	_ Form[Spec]    = Spec{}
)

func (c Content) normalized() Content {
	c.Status = c.Status.OrDefault()
	if c.Slug == "" && c.Title != "" {
		c.Slug = Slugify(c.Title)
	}
	return c
}

func (b Brand) Normalized() Brand {
	b.Content = b.Content.normalized()
	return b
}

func (b Brand) WithStatus(s Status) Brand {
	b.Status = s
	return b
}

func (m Model) Normalized() Model {
	m.Content = m.Content.normalized()
	if m.Gallery != nil {
		g := m.Gallery.Normalized()
		m.Gallery = &g
	}
	return m
}

func (m Model) WithStatus(s Status) Model {
	m.Status = s
	return m
}

func (r Rating) Normalized() Rating {
	r.Content = r.Content.normalized()
	return r
}

func (r Rating) WithStatus(s Status) Rating {
	r.Status = s
	return r
}

func (g Gallery) Normalized() Gallery {
	g.Content = g.Content.normalized()
	return g
}

func (g Gallery) WithStatus(s Status) Gallery {
	g.Status = s
	return g
}

func (s Spec) Normalized() Spec {
	s.Content = s.Content.normalized()
	return s
}

func (s Spec) WithStatus(st Status) Spec {
	s.Status = st
	return s
}
