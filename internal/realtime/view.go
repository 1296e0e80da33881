package realtime

// View folds row-change events into a local row map. It backs list and
// detail screens: rows are seeded from an initial fetch, then kept current
// by applying the change feed.
type View struct {
	rows map[string]map[string]interface{}
}

// NewView creates an empty view
func NewView() *View {
	return &View{rows: make(map[string]map[string]interface{})}
}

// Load seeds or replaces a row from a full fetch
func (v *View) Load(rowID string, fields map[string]interface{}) {
	row := make(map[string]interface{}, len(fields))
	for k, val := range fields {
		row[k] = val
	}
	v.rows[rowID] = row
}

// Apply merges a change into the view. Rows the view never loaded are
// ignored, including late "paid" events for members a screen no longer
// tracks. Known rows are patched field by field, never replaced wholesale,
// so client-only fields set beside the data survive.
func (v *View) Apply(c Change) {
	row, ok := v.rows[c.RowID]
	if !ok {
		return
	}

	if c.Op == OpDelete {
		delete(v.rows, c.RowID)
		return
	}

	for k, val := range c.Fields {
		row[k] = val
	}
}

// Get returns a row by id
func (v *View) Get(rowID string) (map[string]interface{}, bool) {
	row, ok := v.rows[rowID]
	return row, ok
}

// Len returns the number of rows held by the view
func (v *View) Len() int {
	return len(v.rows)
}
