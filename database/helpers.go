package database

import (
	"sort"

	"auction-market/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var lockingClause = clause.Locking{Strength: "UPDATE"}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SeedRoles inserts the built-in roles, leaving existing rows untouched.
func SeedRoles(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(domain.DefaultRoles()).Error
}
