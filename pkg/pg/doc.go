// Package pg connects to PostgreSQL with pgx, applies goose migrations from
// an fs.FS and classifies common pgx errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations.FS, log); err != nil {
//	    return err
//	}
package pg
