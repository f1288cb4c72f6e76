package psu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func psuData(id string) *PsuData {
	return &PsuData{PsuID: id, PsuIDType: "type", PsuCorporateID: "corp", CorporateIDType: "corpType"}
}

func TestContentEquals(t *testing.T) {
	assert.True(t, psuData("anton").ContentEquals(psuData("anton")))
	assert.False(t, psuData("anton").ContentEquals(psuData("eva")))

	differentType := psuData("anton")
	differentType.PsuIDType = "other"
	assert.False(t, psuData("anton").ContentEquals(differentType))

	t.Run("empty never equals", func(t *testing.T) {
		var nilPsu *PsuData
		assert.False(t, nilPsu.ContentEquals(psuData("anton")))
		assert.False(t, psuData("anton").ContentEquals(nil))
		assert.False(t, (&PsuData{}).ContentEquals(&PsuData{}))
	})
}

func TestDefinePsuDataForAuthorisation(t *testing.T) {
	existing := psuData("anton")
	requested := psuData("eva")

	assert.Equal(t, requested, DefinePsuDataForAuthorisation(existing, requested))
	assert.Equal(t, existing, DefinePsuDataForAuthorisation(existing, &PsuData{}))
	assert.Equal(t, existing, DefinePsuDataForAuthorisation(existing, nil))
}

func TestEnrichPsuData(t *testing.T) {
	list := []PsuData{*psuData("anton")}

	enriched := EnrichPsuData(psuData("eva"), list)
	assert.Len(t, enriched, 2)

	t.Run("duplicate is not added", func(t *testing.T) {
		assert.Len(t, EnrichPsuData(psuData("anton"), list), 1)
	})

	t.Run("empty is not added", func(t *testing.T) {
		assert.Len(t, EnrichPsuData(&PsuData{}, list), 1)
		assert.Len(t, EnrichPsuData(nil, list), 1)
	})
}

func TestIsPsuDataRequestCorrect(t *testing.T) {
	assert.True(t, IsPsuDataRequestCorrect(psuData("anton"), psuData("anton")))
	assert.True(t, IsPsuDataRequestCorrect(psuData("anton"), nil), "unowned record accepts any psu")
	assert.False(t, IsPsuDataRequestCorrect(psuData("anton"), psuData("eva")))
	assert.False(t, IsPsuDataRequestCorrect(nil, psuData("anton")))
}

func TestIsPsuDataListEqual(t *testing.T) {
	a := []PsuData{*psuData("anton"), *psuData("eva")}
	b := []PsuData{*psuData("eva"), *psuData("anton")}

	assert.True(t, IsPsuDataListEqual(a, b), "order must not matter")
	assert.False(t, IsPsuDataListEqual(a, a[:1]))
	assert.False(t, IsPsuDataListEqual(a[:1], []PsuData{*psuData("eva")}))
	assert.True(t, IsPsuDataListEqual(nil, nil))
}
