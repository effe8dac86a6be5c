package ingest

import "strings"

// AddressParts holds normalized address columns derived from an
// OpenStreetMap reverse-geocode address blob.
type AddressParts struct {
	StreetLine1 string
	StreetLine2 string
	City        string
	State       string
	PostalCode  string
	Country     string
	CountryCode string
}

// ContactInfo holds contact fields derived from OSM extratags
type ContactInfo struct {
	Phone        string
	Website      string
	OpeningHours string
}

// ExtractAddressParts normalizes an OSM address blob into flat columns.
// OSM uses different keys depending on the settlement size, so each column
// falls through an ordered list of candidates.
func ExtractAddressParts(address map[string]string) AddressParts {
	return AddressParts{
		StreetLine1: joinNonEmpty(" ", address["house_number"], address["road"]),
		StreetLine2: joinNonEmpty(", ", address["neighbourhood"], address["suburb"], address["city_district"]),
		City:        firstNonEmpty(address["city"], address["town"], address["village"], address["hamlet"], address["municipality"]),
		State:       firstNonEmpty(address["state"], address["state_district"], address["region"], address["province"]),
		PostalCode:  address["postcode"],
		Country:     address["country"],
		CountryCode: address["country_code"],
	}
}

// ExtractContactInfo pulls contact-ish fields out of OSM extratags
func ExtractContactInfo(extratags map[string]string) ContactInfo {
	return ContactInfo{
		Phone:        firstNonEmpty(extratags["phone"], extratags["contact:phone"]),
		Website:      firstNonEmpty(extratags["website"], extratags["contact:website"]),
		OpeningHours: extratags["opening_hours"],
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
