// Package registry stores citizen records in PostgreSQL.
//
// A registry user is the local row for a Cognito subject. Personal details
// (names, birth date, gender, phone) live on the linked person row so that a
// person can exist before their online account is confirmed.
//
//	repo := registry.NewRepository(pool)
//	profile, err := repo.CreateUserWithPerson(ctx, registry.NewUser{...})
//
// Migrations are embedded and applied with pg.Migrate(ctx, pool, cfg, registry.Migrations(), log).
package registry
