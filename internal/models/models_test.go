package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCoords(t *testing.T) {
	assert.True(t, ValidCoords([]float64{77.21, 28.64}))
	assert.True(t, ValidCoords([]float64{-180, 90}))
	assert.False(t, ValidCoords(nil))
	assert.False(t, ValidCoords([]float64{77.21}))
	assert.False(t, ValidCoords([]float64{77.21, 28.64, 1}))
	assert.False(t, ValidCoords([]float64{200, 10}))
	assert.False(t, ValidCoords([]float64{10, -91}))
	assert.False(t, ValidCoords([]float64{math.NaN(), 10}))
}

func TestIssue_ApplyDefaults(t *testing.T) {
	issue := Issue{}
	issue.ApplyDefaults()
	assert.Equal(t, DefaultTitle, issue.Title)
	assert.Equal(t, CategoryUnverified, issue.Category)

	issue = Issue{Title: "Overflowing bin", Category: CategoryWaste}
	issue.ApplyDefaults()
	assert.Equal(t, "Overflowing bin", issue.Title)
	assert.Equal(t, CategoryWaste, issue.Category)
}

func TestFilterState_Visible(t *testing.T) {
	f := FilterState{CategoryWaste: false, CategoryWater: true}
	assert.False(t, f.Visible(CategoryWaste))
	assert.True(t, f.Visible(CategoryWater))
	// Категория без записи видима
	assert.True(t, f.Visible(CategoryRooftop))
	assert.True(t, FilterState(nil).Visible(CategoryWaste))
}

func TestMillis_JSON(t *testing.T) {
	ts := time.UnixMilli(1735689600123)

	data, err := json.Marshal(NewMillis(ts))
	require.NoError(t, err)
	assert.Equal(t, "1735689600123", string(data))

	var fromNumber Millis
	require.NoError(t, json.Unmarshal([]byte("1735689600123"), &fromNumber))
	assert.True(t, ts.Equal(fromNumber.Time))

	var fromString Millis
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-01T00:00:00.123Z"`), &fromString))
	assert.True(t, ts.Equal(fromString.Time))

	var fromNull Millis
	require.NoError(t, json.Unmarshal([]byte("null"), &fromNull))
	assert.True(t, fromNull.IsZero())

	data, err = json.Marshal(Millis{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestIssue_JSONShape(t *testing.T) {
	img := "https://img.example/1.jpg"
	issue := Issue{
		ID:        "i1",
		Title:     "Leak",
		Category:  CategoryWater,
		Coords:    []float64{77.21, 28.64},
		ImageURL:  &img,
		CreatedAt: NewMillis(time.UnixMilli(1000)),
	}
	data, err := json.Marshal(issue)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"i1","title":"Leak","description":"","category":"water","coords":[77.21,28.64],"imageUrl":"https://img.example/1.jpg","createdAt":1000}`, string(data))
}

func TestGroup_HasMember(t *testing.T) {
	g := &Group{Members: []string{"u1", "u2"}}
	assert.True(t, g.HasMember("u2"))
	assert.False(t, g.HasMember("u3"))
}

func TestGroup_NormalizeMembers(t *testing.T) {
	group := Group{Members: []string{"u1", "u2", "u1", "", "u3", "u2"}}
	group.NormalizeMembers()
	assert.Equal(t, []string{"u1", "u2", "u3"}, group.Members)

	empty := Group{}
	empty.NormalizeMembers()
	assert.NotNil(t, empty.Members)
	assert.Empty(t, empty.Members)
}
