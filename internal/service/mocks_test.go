package service_test

import (
	"context"

	"opsportal/internal/model"
	"opsportal/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockReportRepo struct {
	mock.Mock
}

func (m *mockReportRepo) Create(ctx context.Context, report *model.Report) error {
	return m.Called(ctx, report).Error(0)
}

func (m *mockReportRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*model.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportRepo) List(ctx context.Context, filter repository.ReportFilter, offset, limit int) ([]model.Report, int64, error) {
	args := m.Called(ctx, filter, offset, limit)
	return args.Get(0).([]model.Report), args.Get(1).(int64), args.Error(2)
}

type mockCostCenterRepo struct {
	mock.Mock
}

func (m *mockCostCenterRepo) Create(ctx context.Context, cc *model.CostCenter) error {
	return m.Called(ctx, cc).Error(0)
}

func (m *mockCostCenterRepo) Update(ctx context.Context, cc *model.CostCenter) error {
	return m.Called(ctx, cc).Error(0)
}

func (m *mockCostCenterRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCostCenterRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CostCenter, error) {
	args := m.Called(ctx, id)
	if cc := args.Get(0); cc != nil {
		return cc.(*model.CostCenter), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCostCenterRepo) FindByCode(ctx context.Context, code string) (*model.CostCenter, error) {
	args := m.Called(ctx, code)
	if cc := args.Get(0); cc != nil {
		return cc.(*model.CostCenter), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCostCenterRepo) List(ctx context.Context, search string) ([]model.CostCenter, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]model.CostCenter), args.Error(1)
}

func (m *mockCostCenterRepo) FindIDsByName(ctx context.Context, fragment string) ([]uuid.UUID, error) {
	args := m.Called(ctx, fragment)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}
