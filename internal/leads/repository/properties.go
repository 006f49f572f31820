package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"

	"github.com/jackc/pgx/v5"
)

// PropertyCriteria filters the listing catalog. Zero values mean "any".
type PropertyCriteria struct {
	Zone         string
	PropertyType string
	Operation    string
	MaxPrice     float64
	MinBedrooms  int
	Limit        int
}

// SearchProperties returns available listings matching the criteria,
// cheapest first.
func (r *Repository) SearchProperties(ctx context.Context, criteria PropertyCriteria) ([]domain.Property, error) {
	limit := criteria.Limit
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	conditions := []string{"status = 'disponible'"}
	args := []interface{}{}

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if criteria.Zone != "" {
		addCondition("zone ILIKE '%%' || $%d || '%%'", criteria.Zone)
	}
	if criteria.PropertyType != "" {
		addCondition("property_type = $%d", strings.ToLower(criteria.PropertyType))
	}
	if criteria.Operation != "" {
		addCondition("operation = $%d", strings.ToLower(criteria.Operation))
	}
	if criteria.MaxPrice > 0 {
		addCondition("price <= $%d", criteria.MaxPrice)
	}
	if criteria.MinBedrooms > 0 {
		addCondition("bedrooms >= $%d", criteria.MinBedrooms)
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT id, reference, title, property_type, operation, price, zone, bedrooms, bathrooms, sqm, description, status, created_at
		FROM properties
		WHERE %s
		ORDER BY price ASC
		LIMIT $%d
	`, strings.Join(conditions, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	properties := make([]domain.Property, 0, limit)
	for rows.Next() {
		prop, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, prop)
	}
	return properties, rows.Err()
}

// GetPropertyByReference returns one listing by its public reference code.
func (r *Repository) GetPropertyByReference(ctx context.Context, reference string) (domain.Property, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, reference, title, property_type, operation, price, zone, bedrooms, bathrooms, sqm, description, status, created_at
		FROM properties
		WHERE reference = $1
	`, strings.ToUpper(strings.TrimSpace(reference)))

	prop, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Property{}, ErrNotFound
		}
		return domain.Property{}, err
	}
	return prop, nil
}

func scanProperty(row pgx.Row) (domain.Property, error) {
	var prop domain.Property
	err := row.Scan(
		&prop.ID, &prop.Reference, &prop.Title, &prop.PropertyType, &prop.Operation,
		&prop.Price, &prop.Zone, &prop.Bedrooms, &prop.Bathrooms, &prop.SquareMeters,
		&prop.Description, &prop.Status, &prop.CreatedAt,
	)
	return prop, err
}
