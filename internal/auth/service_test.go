package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deristok/deristok/internal/shared"
)

type memoryOperatorRepo struct {
	operators map[string]Operator
	nextID    int64
}

func newMemoryOperatorRepo() *memoryOperatorRepo {
	return &memoryOperatorRepo{operators: make(map[string]Operator)}
}

func (r *memoryOperatorRepo) GetOperatorByUsername(ctx context.Context, username string) (Operator, error) {
	op, ok := r.operators[username]
	if !ok {
		return Operator{}, fmt.Errorf("operator %q: %w", username, shared.ErrNotFound)
	}
	return op, nil
}

func (r *memoryOperatorRepo) CountOperators(ctx context.Context) (int, error) {
	return len(r.operators), nil
}

func (r *memoryOperatorRepo) InsertOperator(ctx context.Context, op Operator) (int64, error) {
	r.nextID++
	op.ID = r.nextID
	r.operators[op.Username] = op
	return op.ID, nil
}

func TestLoginAndVerify(t *testing.T) {
	repo := newMemoryOperatorRepo()
	svc := NewService(repo, "test-secret", time.Hour)

	require.NoError(t, svc.EnsureDefaultOperator(context.Background(), "admin", "admin", "Yönetici"))

	token, op, err := svc.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "admin", op.Username)

	actor, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "Yönetici", actor)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newMemoryOperatorRepo()
	svc := NewService(repo, "test-secret", time.Hour)
	require.NoError(t, svc.EnsureDefaultOperator(context.Background(), "admin", "admin", "Yönetici"))

	_, _, err := svc.Login(context.Background(), "admin", "wrong")
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	_, _, err = svc.Login(context.Background(), "ghost", "admin")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
	repo := newMemoryOperatorRepo()
	require.NoError(t, NewService(repo, "secret-a", time.Hour).EnsureDefaultOperator(context.Background(), "admin", "admin", "Yönetici"))

	token, _, err := NewService(repo, "secret-a", time.Hour).Login(context.Background(), "admin", "admin")
	require.NoError(t, err)

	_, err = NewService(repo, "secret-b", time.Hour).VerifyToken(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestEnsureDefaultOperatorIsIdempotent(t *testing.T) {
	repo := newMemoryOperatorRepo()
	svc := NewService(repo, "test-secret", time.Hour)

	require.NoError(t, svc.EnsureDefaultOperator(context.Background(), "admin", "admin", "Yönetici"))
	require.NoError(t, svc.EnsureDefaultOperator(context.Background(), "admin2", "admin2", "Yedek"))
	require.Len(t, repo.operators, 1)
}
