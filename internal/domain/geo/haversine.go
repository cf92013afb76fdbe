// Package geo вычисляет расстояния между точками на поверхности Земли.
package geo

import (
	"math"

	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

// EarthRadiusKm средний радиус Земли.
const EarthRadiusKm = 6371.0

// Point задаёт координаты в градусах.
type Point struct {
	Lat float64
	Lng float64
}

// Validate проверяет, что координаты лежат в допустимых диапазонах.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return apperror.Validation("широта должна быть в диапазоне [-90, 90], получено %v", p.Lat)
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return apperror.Validation("долгота должна быть в диапазоне [-180, 180], получено %v", p.Lng)
	}
	return nil
}

// DistanceKm возвращает расстояние по большой окружности между a и b в километрах.
// Входные точки не проверяются, вызывающий код валидирует их через Validate.
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Погрешность округления может дать h чуть больше 1.
	h = math.Min(1, h)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
