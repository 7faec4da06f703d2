package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/internal/service"
	dbtest "opsportal/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newReportService(db *gorm.DB) service.ReportService {
	return service.NewReportService(
		repository.NewReportRepository(db),
		repository.NewCostCenterRepository(db),
		repository.NewUserRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		zap.NewNop(),
	)
}

func TestSubmitReportInheritsCostCenter(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := newReportService(db)

	cc := dbtest.CostCenter(t, db, "Hanoi Warehouse", "HN-W")
	inspector := dbtest.User(t, db, "tuan", model.RoleInspector, "QA", cc)

	view, err := svc.SubmitReport(context.Background(), inspector.ID.String(), service.SubmitReportRequest{
		ReportType:     model.ReportTypeDaily,
		InspectionTime: "08:00 - 10:00",
		Items: []service.ReportItemRequest{
			{Task: "Check fire exits", Status: true},
			{Task: "Count pallets", Status: false, Notes: "2 missing"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, view.CostCenter)
	assert.Equal(t, cc.ID.String(), view.CostCenter.ID)
	assert.Equal(t, "tuan", view.Inspector.Username)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Check fire exits", view.Items[0].Task)
	assert.Equal(t, "2 missing", view.Items[1].Notes)
	assert.NotEmpty(t, view.SubmittedAt)
}

func TestSubmitReportWithoutCostCenter(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := newReportService(db)

	inspector := dbtest.User(t, db, "tuan", model.RoleInspector, "QA", nil)

	_, err := svc.SubmitReport(context.Background(), inspector.ID.String(), service.SubmitReportRequest{
		ReportType: model.ReportTypeWeekly,
		Items:      []service.ReportItemRequest{{Task: "Walk the site"}},
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.EqualError(t, err, "Inspector has no assigned cost center")

	var count int64
	require.NoError(t, db.Model(&model.Report{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitReportValidation(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := newReportService(db)
	cc := dbtest.CostCenter(t, db, "Site", "S")
	inspector := dbtest.User(t, db, "tuan", model.RoleInspector, "QA", cc)

	_, err := svc.SubmitReport(context.Background(), inspector.ID.String(), service.SubmitReportRequest{ReportType: "monthly"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.SubmitReport(context.Background(), inspector.ID.String(), service.SubmitReportRequest{
		ReportType: model.ReportTypeDaily,
		Items:      []service.ReportItemRequest{{Task: " "}},
	})
	assert.EqualError(t, err, "items[0].task is required")
}

func TestListReportsQuery(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := newReportService(db)
	ctx := context.Background()

	north := dbtest.CostCenter(t, db, "Hanoi North", "HN-N")
	south := dbtest.CostCenter(t, db, "Saigon South", "SG-S")
	alice := dbtest.User(t, db, "alice", model.RoleInspector, "QA", north)
	bob := dbtest.User(t, db, "bob", model.RoleInspector, "QA", south)

	// 2024-06-01 in Asia/Ho_Chi_Minh runs from 2024-05-31T17:00Z to 2024-06-01T17:00Z
	dbtest.Report(t, db, alice, model.ReportTypeDaily, time.Date(2024, 5, 31, 18, 0, 0, 0, time.UTC))
	dbtest.Report(t, db, alice, model.ReportTypeWeekly, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	dbtest.Report(t, db, bob, model.ReportTypeDaily, time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC))

	page, err := svc.ListReports(ctx, service.ReportQuery{Date: "2024-06-01"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	page, err = svc.ListReports(ctx, service.ReportQuery{CostCenter: "south"})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "bob", page.Reports[0].Inspector.Username)

	page, err = svc.ListReports(ctx, service.ReportQuery{CostCenter: north.ID.String(), ReportType: model.ReportTypeDaily})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	page, err = svc.ListReports(ctx, service.ReportQuery{Inspector: alice.ID.String(), Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Reports, 1)
	assert.Equal(t, model.ReportTypeWeekly, page.Reports[0].ReportType)
}

func TestListReportsRejectsBadQuery(t *testing.T) {
	svc := newReportService(dbtest.NewDB(t))
	ctx := context.Background()

	for _, q := range []service.ReportQuery{
		{Inspector: "not-a-uuid"},
		{ReportType: "monthly"},
		{Date: "June 1st"},
	} {
		_, err := svc.ListReports(ctx, q)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err), "%+v", q)
	}
}

func TestListReportsUnmatchedCostCenterSkipsQuery(t *testing.T) {
	reports := &mockReportRepo{}
	centers := &mockCostCenterRepo{}
	centers.On("FindIDsByName", mock.Anything, "nowhere").Return([]uuid.UUID{}, nil)

	svc := service.NewReportService(reports, centers, nil, nil, nil, zap.NewNop())

	page, err := svc.ListReports(context.Background(), service.ReportQuery{CostCenter: "nowhere"})
	require.NoError(t, err)
	assert.Empty(t, page.Reports)
	assert.Zero(t, page.Total)
	assert.Equal(t, 1, page.Page)

	centers.AssertExpectations(t)
	reports.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListReportsStoreFailure(t *testing.T) {
	reports := &mockReportRepo{}
	reports.On("List", mock.Anything, repository.ReportFilter{}, 0, 20).
		Return([]model.Report{}, int64(0), errors.New("connection reset"))

	svc := service.NewReportService(reports, &mockCostCenterRepo{}, nil, nil, nil, zap.NewNop())

	_, err := svc.ListReports(context.Background(), service.ReportQuery{})
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	reports.AssertExpectations(t)
}

func TestGetReport(t *testing.T) {
	db := dbtest.NewDB(t)
	svc := newReportService(db)
	cc := dbtest.CostCenter(t, db, "Site", "S")
	inspector := dbtest.User(t, db, "tuan", model.RoleInspector, "QA", cc)
	report := dbtest.Report(t, db, inspector, model.ReportTypeDaily, time.Now())

	view, err := svc.GetReport(context.Background(), report.ID.String())
	require.NoError(t, err)
	assert.Equal(t, report.ID.String(), view.ID)
	assert.Equal(t, "Site", view.CostCenter.Name)

	_, err = svc.GetReport(context.Background(), uuid.NewString())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = svc.GetReport(context.Background(), "42")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
