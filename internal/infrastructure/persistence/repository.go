package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/farmmarket/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// translate maps GORM sentinel errors onto domain errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

// saveAggregate inserts a new aggregate or updates a stored one when its
// version still matches the row. Associations are written by the caller.
func saveAggregate(db *gorm.DB, agg shared.AggregateRoot) error {
	if agg.PersistedVersion() == 0 {
		if err := db.Omit(clause.Associations).Create(agg).Error; err != nil {
			return translate(err)
		}
		agg.MarkPersisted()
		return nil
	}

	result := db.Model(agg).
		Where("version = ?", agg.PersistedVersion()).
		Select("*").
		Omit(clause.Associations).
		Updates(agg)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	agg.MarkPersisted()
	return nil
}

// markLoaded records the stored version on every loaded aggregate
func markLoaded[T any, P interface {
	*T
	shared.AggregateRoot
}](items []T) {
	for i := range items {
		P(&items[i]).MarkPersisted()
	}
}

// applyPaging applies the normalized filter's ordering, offset and limit
func applyPaging(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := ValidateSortOrder(filter.OrderDir)
	return query.
		Order(fmt.Sprintf("%s %s", field, dir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}

// likePattern wraps a search term for matching against LOWER(column)
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
