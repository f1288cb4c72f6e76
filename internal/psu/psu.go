// Package psu models PSU (payment service user) identification data and the
// comparison rules used when matching authorisations to users.
package psu

// PsuData identifies a PSU as supplied by the TPP. All four fields together
// form the identity; comparisons ignore the surrounding record.
type PsuData struct {
	PsuID           string `json:"psuId"`
	PsuIDType       string `json:"psuIdType,omitempty"`
	PsuCorporateID  string `json:"psuCorporateId,omitempty"`
	CorporateIDType string `json:"psuCorporateIdType,omitempty"`
}

// IsEmpty reports whether no identifying field is set.
func (p *PsuData) IsEmpty() bool {
	return p == nil || p.PsuID == ""
}

// ContentEquals reports field equality of two PSU records. A nil or empty
// record never equals anything, including another empty record.
func (p *PsuData) ContentEquals(other *PsuData) bool {
	if p.IsEmpty() || other.IsEmpty() {
		return false
	}
	return p.PsuID == other.PsuID &&
		p.PsuIDType == other.PsuIDType &&
		p.PsuCorporateID == other.PsuCorporateID &&
		p.CorporateIDType == other.CorporateIDType
}

// DefinePsuDataForAuthorisation picks the PSU to attach to an authorisation:
// the request PSU when present, otherwise the one already on the record.
func DefinePsuDataForAuthorisation(existing, requested *PsuData) *PsuData {
	if !requested.IsEmpty() {
		return requested
	}
	return existing
}

// EnrichPsuData appends the PSU to the list unless an equal record is
// already present. Empty PSU data is never added.
func EnrichPsuData(psuData *PsuData, list []PsuData) []PsuData {
	if psuData.IsEmpty() || IsPsuDataInList(psuData, list) {
		return list
	}
	return append(list, *psuData)
}

// IsPsuDataInList reports whether an equal PSU record is in the list.
func IsPsuDataInList(psuData *PsuData, list []PsuData) bool {
	for i := range list {
		if psuData.ContentEquals(&list[i]) {
			return true
		}
	}
	return false
}

// IsPsuDataRequestCorrect reports whether a request PSU may act on a record
// currently owned by the given PSU. An unowned record accepts any PSU.
func IsPsuDataRequestCorrect(requested, owner *PsuData) bool {
	if requested.IsEmpty() {
		return false
	}
	if owner.IsEmpty() {
		return true
	}
	return requested.ContentEquals(owner)
}

// IsPsuDataListEqual reports whether both lists hold the same PSU records,
// regardless of order.
func IsPsuDataListEqual(a, b []PsuData) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !IsPsuDataInList(&a[i], b) {
			return false
		}
	}
	return true
}
