package db

import (
	"context"
	"fmt"
	"strings"
)

var DefaultCategories = []string{"Lehenga", "Saree", "Gown", "Sherwani", "Anarkali", "Indo-Western"}

// EnsureCategories inserts the named categories that do not exist yet and
// returns how many were added.
func EnsureCategories(ctx context.Context, database DB, names []string) (int, error) {
	added := 0
	for _, name := range names {
		tag, err := database.Exec(ctx,
			"INSERT INTO categories (name, slug) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING",
			name, Slugify(name))
		if err != nil {
			return added, fmt.Errorf("failed to seed category %q: %w", name, err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
