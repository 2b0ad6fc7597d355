package repository

import (
	"context"
	"errors"

	"tutorlink/internal/infra"
	"tutorlink/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TeacherReadStore serves the TeacherDirectory lookup from the local teachers
// table. Inactive teachers are reported identically to absent ones.
type TeacherReadStore struct {
	db DBTX
}

func NewTeacherReadStore(db DBTX) *TeacherReadStore {
	return &TeacherReadStore{db: db}
}

func (r *TeacherReadStore) FindActive(ctx context.Context, id uuid.UUID) (*commands.TeacherSnapshot, error) {
	const query = `
		SELECT id, display_name, phone, email, active
		FROM teachers
		WHERE id = $1 AND active`

	var snap commands.TeacherSnapshot
	err := r.db.QueryRow(ctx, query, id).Scan(
		&snap.ID,
		&snap.DisplayName,
		&snap.Phone,
		&snap.Email,
		&snap.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("teacher not found or inactive", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find teacher", err)
	}
	return &snap, nil
}
