package storage

import "context"

// ExecForTest runs raw SQL so tests can set up legacy schemas.
func (s *Store) ExecForTest(ctx context.Context, query string) error {
	_, err := s.db.ExecContext(ctx, query)
	return err
}
