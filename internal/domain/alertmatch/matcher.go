// Package alertmatch проверяет, подходит ли объявление под сохранённый поиск.
package alertmatch

import (
	"strings"

	"github.com/ignatzorin/cocreate-backend/internal/domain/geo"
	"github.com/ignatzorin/cocreate-backend/internal/models"
)

// Keywords разбивает строку ключевых слов по запятым.
// Пустые токены отбрасываются, регистр приводится к нижнему.
func Keywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		kw := strings.ToLower(strings.TrimSpace(p))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Match возвращает true, если объявление удовлетворяет всем заданным критериям алерта.
// Незаданный критерий не ограничивает выборку.
func Match(alert *models.Alert, product *models.Product) bool {
	if alert == nil || product == nil {
		return false
	}

	if alert.CategoryID != nil {
		if product.CategoryID == nil || *product.CategoryID != *alert.CategoryID {
			return false
		}
	}

	if kws := Keywords(alert.Keywords); len(kws) > 0 && !containsAny(product, kws) {
		return false
	}

	if alert.MaxPrice.Valid && product.Price.GreaterThan(alert.MaxPrice.Decimal) {
		return false
	}

	if alert.Condition != nil && *alert.Condition != "" && product.Condition != *alert.Condition {
		return false
	}

	if alert.HasLocation() && product.HasLocation() {
		d := geo.DistanceKm(
			geo.Point{Lat: *alert.LocationLat, Lng: *alert.LocationLong},
			geo.Point{Lat: *product.LocationLat, Lng: *product.LocationLong},
		)
		if d > float64(alert.RadiusKm) {
			return false
		}
	}

	return true
}

func containsAny(product *models.Product, keywords []string) bool {
	text := strings.ToLower(product.Title + " " + product.Description)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
