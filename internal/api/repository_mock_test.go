package api

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gosdt/domain/block"
	"gosdt/domain/core"
	"gosdt/internal"
	"gosdt/internal/analysis"
	"gosdt/internal/errors"
)

type MockBlockRepository struct {
	mock.Mock
}

func (m *MockBlockRepository) Save(ctx context.Context, b *block.Block) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBlockRepository) Get(ctx context.Context, id core.BlockID) (*block.Block, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*block.Block)
	return b, args.Error(1)
}

func (m *MockBlockRepository) List(ctx context.Context, limit, offset int) ([]*block.Block, error) {
	args := m.Called(ctx, limit, offset)
	blocks, _ := args.Get(0).([]*block.Block)
	return blocks, args.Error(1)
}

func (m *MockBlockRepository) Delete(ctx context.Context, id core.BlockID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newMockedRouter(repo *MockBlockRepository) http.Handler {
	logger := internal.NewLoggerTo(io.Discard, internal.LogLevelError)
	h := NewHandler(repo, analysis.NewSummarizer(1, logger), DensityDefaults{Points: 11, Span: 3}, logger)
	return NewRouter(h)
}

func TestCreateBlockStorageFailure(t *testing.T) {
	repo := &MockBlockRepository{}
	repo.On("Save", mock.Anything, mock.AnythingOfType("*block.Block")).
		Return(errors.DatabaseError("failed to save block", stderrors.New("connection reset")))

	w := do(t, newMockedRouter(repo), http.MethodPost, "/api/v1/blocks",
		`{"label":"a","counts":{"hits":1,"misses":1,"false_alarms":1,"correct_rejections":1}}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.CodeDatabaseError, decode(t, w)["code"])
	repo.AssertExpectations(t)
}

func TestCreateBlockInvalidCountsNeverReachStorage(t *testing.T) {
	repo := &MockBlockRepository{}

	w := do(t, newMockedRouter(repo), http.MethodPost, "/api/v1/blocks",
		`{"label":"a","counts":{"hits":-1,"misses":1,"false_alarms":1,"correct_rejections":1}}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestListBlocksPassesPaging(t *testing.T) {
	repo := &MockBlockRepository{}
	repo.On("List", mock.Anything, 5, 10).Return([]*block.Block{}, nil)

	w := do(t, newMockedRouter(repo), http.MethodGet, "/api/v1/blocks?limit=5&offset=10", "")

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestGetBlockNotFound(t *testing.T) {
	repo := &MockBlockRepository{}
	id := core.NewBlockID()
	repo.On("Get", mock.Anything, id).Return(nil, core.NewNotFoundError("block", id.String()))

	w := do(t, newMockedRouter(repo), http.MethodGet, "/api/v1/blocks/"+id.String(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, decode(t, w)["code"])
}
