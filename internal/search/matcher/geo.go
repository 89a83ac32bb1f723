package matcher

import (
	"math"

	"repairer-search/internal/models"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b models.GeoPoint) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	h = math.Min(1, h)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// BoundsAround returns the lat/lng rectangle enclosing a circle of radiusKm around center.
func BoundsAround(center models.GeoPoint, radiusKm float64) *models.BoundingBox {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	cosLat := math.Cos(toRadians(center.Lat))
	dLng := 180.0
	if cosLat > 1e-6 {
		dLng = math.Min(180, dLat/cosLat)
	}
	return &models.BoundingBox{
		MinLat: math.Max(-90, center.Lat-dLat),
		MaxLat: math.Min(90, center.Lat+dLat),
		MinLng: math.Max(-180, center.Lng-dLng),
		MaxLng: math.Min(180, center.Lng+dLng),
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
