package models

import (
	"errors"
	"math"
)

// ErrNotFound возвращается репозиториями, когда запись не найдена
var ErrNotFound = errors.New("not found")

// Category - категория проблемы
type Category string

const (
	CategoryWaste      Category = "waste"
	CategoryWater      Category = "water"
	CategoryVegetation Category = "vegetation"
	CategoryRooftop    Category = "rooftop"
	CategoryUnverified Category = "unverified"
)

// DefaultTitle подставляется, если заголовок не указан
const DefaultTitle = "Untitled"

// Categories - фиксированный набор категорий в порядке отображения
var Categories = []Category{
	CategoryWaste,
	CategoryWater,
	CategoryVegetation,
	CategoryRooftop,
	CategoryUnverified,
}

// ParseCategory возвращает категорию и признак того, что она известна
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return CategoryUnverified, false
}

// Issue - проблема, отмеченная пользователем на карте
type Issue struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Coords      []float64 `json:"coords"`
	ImageURL    *string   `json:"imageUrl"`
	CreatedAt   Millis    `json:"createdAt"`
}

// ApplyDefaults заполняет заголовок и категорию значениями по умолчанию
func (i *Issue) ApplyDefaults() {
	if i.Title == "" {
		i.Title = DefaultTitle
	}
	if i.Category == "" {
		i.Category = CategoryUnverified
	}
}

// Lon возвращает долготу; вызывать только при HasValidCoords
func (i Issue) Lon() float64 { return i.Coords[0] }

// Lat возвращает широту; вызывать только при HasValidCoords
func (i Issue) Lat() float64 { return i.Coords[1] }

// HasValidCoords проверяет, что координаты - пара (lon, lat) в допустимых пределах
func (i Issue) HasValidCoords() bool {
	return ValidCoords(i.Coords)
}

// ValidCoords проверяет пару (lon, lat)
func ValidCoords(c []float64) bool {
	if len(c) != 2 {
		return false
	}
	lon, lat := c[0], c[1]
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// Classification - результат классификации изображения
type Classification struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Labels     []string `json:"labels"`
}
