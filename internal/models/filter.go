package models

// FilterState - видимость категорий на карте.
// Категория без записи считается видимой.
type FilterState map[Category]bool

// DefaultFilters включает все известные категории
func DefaultFilters() FilterState {
	f := make(FilterState, len(Categories))
	for _, c := range Categories {
		f[c] = true
	}
	return f
}

// Visible сообщает, видна ли категория
func (f FilterState) Visible(c Category) bool {
	visible, ok := f[c]
	if !ok {
		return true
	}
	return visible
}

// Clone возвращает независимую копию
func (f FilterState) Clone() FilterState {
	out := make(FilterState, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
