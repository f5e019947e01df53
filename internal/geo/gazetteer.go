package geo

import (
	"strings"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// Place is a gazetteer entry. Key is already normalized.
type Place struct {
	Key   string
	Name  string
	Point domain.Coordinates
}

// Gazetteer is an ordered place list; the first matching entry wins, so
// neighbourhoods are listed before the cities that contain them.
type Gazetteer []Place

func place(key, name string, lat, lng float64) Place {
	return Place{Key: key, Name: name, Point: domain.Coordinates{Latitude: lat, Longitude: lng}}
}

// DefaultGazetteer covers the regions where most jobs are posted.
var DefaultGazetteer = Gazetteer{
	place("ikeja", "Ikeja", 6.6018, 3.3515),
	place("lekki", "Lekki", 6.4698, 3.5852),
	place("victoria island", "Victoria Island", 6.4281, 3.4219),
	place("ikoyi", "Ikoyi", 6.4549, 3.4366),
	place("yaba", "Yaba", 6.5095, 3.3711),
	place("surulere", "Surulere", 6.4969, 3.3481),
	place("ajah", "Ajah", 6.4672, 3.5710),
	place("gbagada", "Gbagada", 6.5538, 3.3872),
	place("festac", "Festac Town", 6.4660, 3.2830),
	place("apapa", "Apapa", 6.4474, 3.3617),
	place("lagos", "Lagos", 6.5244, 3.3792),
	place("port harcourt", "Port Harcourt", 4.8156, 7.0498),
	place("ph", "Port Harcourt", 4.8156, 7.0498),
	place("abuja", "Abuja", 9.0765, 7.3986),
	place("ibadan", "Ibadan", 7.3775, 3.9470),
	place("kano", "Kano", 12.0022, 8.5920),
	place("enugu", "Enugu", 6.4584, 7.5464),
	place("benin city", "Benin City", 6.3350, 5.6037),
	place("kaduna", "Kaduna", 10.5105, 7.4165),
	place("jos", "Jos", 9.8965, 8.8583),
	place("warri", "Warri", 5.5544, 5.7932),
	place("calabar", "Calabar", 4.9757, 8.3417),
	place("uyo", "Uyo", 5.0377, 7.9128),
	place("owerri", "Owerri", 5.4850, 7.0350),
	place("abeokuta", "Abeokuta", 7.1475, 3.3619),
	place("ilorin", "Ilorin", 8.4966, 4.5426),
	place("asaba", "Asaba", 6.2059, 6.6959),
	place("onitsha", "Onitsha", 6.1413, 6.8029),
	place("akure", "Akure", 7.2571, 5.2058),
	place("osogbo", "Osogbo", 7.7827, 4.5418),
	place("maiduguri", "Maiduguri", 11.8311, 13.1510),
	place("zaria", "Zaria", 11.0855, 7.7199),
}

// Lookup returns the first place whose key occurs in normalized text as a
// whole-word run. The substring match is anchored on word boundaries so
// short keys such as "ph" match "gra ph" but not "phone".
func (g Gazetteer) Lookup(normalized string) (Place, bool) {
	if normalized == "" {
		return Place{}, false
	}
	padded := " " + normalized + " "
	for _, p := range g {
		if strings.Contains(padded, " "+p.Key+" ") {
			return p, true
		}
	}
	return Place{}, false
}
