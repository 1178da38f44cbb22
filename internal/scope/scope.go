// Package scope carries SQL conditions that narrow catalog queries.
package scope

import "gorm.io/gorm"

// QueryScope represents a SQL condition that can be added to a query.
// It carries a raw SQL predicate and its arguments for safe parameter binding.
type QueryScope struct {
	// Condition is the SQL WHERE clause condition (e.g., "namespace = ?")
	Condition string
	// Args contains the parameter values for placeholders in Condition
	Args []interface{}
}

// Namespaces restricts a query to rows of the given namespaces.
func Namespaces(namespaces ...string) QueryScope {
	return QueryScope{Condition: "namespace IN ?", Args: []interface{}{namespaces}}
}

// Where builds a scope from a raw condition.
func Where(condition string, args ...interface{}) QueryScope {
	return QueryScope{Condition: condition, Args: args}
}

// ToGORM converts scopes to GORM scope functions.
func ToGORM(scopes []QueryScope) []func(*gorm.DB) *gorm.DB {
	if len(scopes) == 0 {
		return nil
	}
	gormScopes := make([]func(*gorm.DB) *gorm.DB, len(scopes))
	for i, s := range scopes {
		s := s
		gormScopes[i] = func(db *gorm.DB) *gorm.DB {
			return db.Where(s.Condition, s.Args...)
		}
	}
	return gormScopes
}

// Apply adds every scope to db.
func Apply(db *gorm.DB, scopes []QueryScope) *gorm.DB {
	if len(scopes) == 0 {
		return db
	}
	return db.Scopes(ToGORM(scopes)...)
}
