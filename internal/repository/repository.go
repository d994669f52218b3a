package repository

import "doodle_web/internal/storage"

type Repositories struct {
	Result ResultRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		Result: NewResultRepository(db),
	}
}
