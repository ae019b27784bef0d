package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/model"
	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/repository"
	pkgerrors "GeoAttend/pkg/errors"
)

func f64(v float64) *float64 { return &v }

type published struct {
	msgs []model.AttendanceRecordedMessage
	err  error
}

func (p *published) publish(_ context.Context, msg model.AttendanceRecordedMessage) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func newAttendanceService(t *testing.T, store *fakeStore, pub *published, reader AttendanceReader, tally TallyCache) *AttendanceService {
	t.Helper()
	now := time.Date(2025, 12, 30, 9, 0, 0, 0, wib)
	engine, err := attendance.NewEngine(store, attendance.Config{}, attendance.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	deps := AttendanceDeps{Engine: engine, Store: store, Reader: reader, Location: wib}
	if pub != nil {
		deps.Publish = pub.publish
	}
	if tally != nil {
		deps.Tally = tally
	}
	return NewAttendanceService(deps)
}

func TestSubmitAccepted(t *testing.T) {
	store := newFakeStore(testSchedule())
	pub := &published{}
	svc := newAttendanceService(t, store, pub, nil, nil)

	res, err := svc.Submit(context.Background(), 10, dto.SubmitAttendanceRequest{
		ScheduleID: 1,
		Latitude:   f64(-6.2),
		Longitude:  f64(106.816666),
	})
	require.NoError(t, err)

	assert.Equal(t, "accepted", res.Classification)
	require.NotNil(t, res.DistanceMeters)
	assert.Equal(t, 0.0, *res.DistanceMeters)
	assert.Nil(t, res.ReasonCode)
	require.NotNil(t, res.Status)
	assert.Equal(t, "present", *res.Status)
	require.NotNil(t, res.RecordID)
	assert.Equal(t, "1", *res.RecordID)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, int64(1), pub.msgs[0].RecordID)
	assert.Equal(t, int64(10), pub.msgs[0].UserID)
	assert.Equal(t, "present", pub.msgs[0].Status)
	assert.NotEmpty(t, pub.msgs[0].OccurredAt)
}

func TestSubmitOutOfRange(t *testing.T) {
	store := newFakeStore(testSchedule())
	svc := newAttendanceService(t, store, &published{}, nil, nil)

	res, err := svc.Submit(context.Background(), 10, dto.SubmitAttendanceRequest{
		ScheduleID: 1,
		Latitude:   f64(-6.21),
		Longitude:  f64(106.826666),
	})
	require.NoError(t, err)
	assert.Equal(t, "out_of_range", res.Classification)
	assert.InDelta(t, 1567.93, *res.DistanceMeters, 0.01)
	assert.Equal(t, "rejected", *res.Status)
}

func TestSubmitRefusedDuplicateHasNullFields(t *testing.T) {
	store := newFakeStore(testSchedule())
	pub := &published{}
	svc := newAttendanceService(t, store, pub, nil, nil)
	req := dto.SubmitAttendanceRequest{ScheduleID: 1, Latitude: f64(-6.2), Longitude: f64(106.816666)}

	_, err := svc.Submit(context.Background(), 10, req)
	require.NoError(t, err)

	res, err := svc.Submit(context.Background(), 10, req)
	require.NoError(t, err)
	assert.Equal(t, "refused", res.Classification)
	require.NotNil(t, res.ReasonCode)
	assert.Equal(t, "duplicate", *res.ReasonCode)
	assert.Nil(t, res.DistanceMeters)
	assert.Nil(t, res.Status)
	assert.Nil(t, res.RecordID)

	// 被拒绝的提交不发布事件
	assert.Len(t, pub.msgs, 1)
}

func TestSubmitPublishFailureDoesNotFail(t *testing.T) {
	store := newFakeStore(testSchedule())
	pub := &published{err: stderrors.New("broker down")}
	svc := newAttendanceService(t, store, pub, nil, nil)

	res, err := svc.Submit(context.Background(), 10, dto.SubmitAttendanceRequest{
		ScheduleID: 1, Latitude: f64(-6.2), Longitude: f64(106.816666),
	})
	require.NoError(t, err)
	assert.Equal(t, "accepted", res.Classification)
	assert.Len(t, store.records, 1)
}

func TestSubmitInvalidInput(t *testing.T) {
	store := newFakeStore(testSchedule())
	svc := newAttendanceService(t, store, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 10, dto.SubmitAttendanceRequest{ScheduleID: 1, Latitude: f64(-6.2)})
	assert.True(t, stderrors.Is(err, pkgerrors.InvalidInput))

	_, err = svc.Submit(ctx, 10, dto.SubmitAttendanceRequest{ScheduleID: 1, Latitude: f64(95), Longitude: f64(0)})
	assert.True(t, stderrors.Is(err, pkgerrors.InvalidInput))

	_, err = svc.Submit(ctx, 10, dto.SubmitAttendanceRequest{ScheduleID: 404, Latitude: f64(0), Longitude: f64(0)})
	assert.True(t, stderrors.Is(err, pkgerrors.ScheduleNotFound))

	assert.Empty(t, store.records)
}

func TestHistory(t *testing.T) {
	reader := new(MockReader)
	svc := newAttendanceService(t, newFakeStore(), nil, reader, nil)
	ctx := context.Background()

	rows := []repository.HistoryRow{{ID: 5, ScheduleID: 1, Status: "present", DistanceMeters: 12.3456}}
	reader.On("History", ctx, int64(10), 2, 15).Return(rows, int64(31), nil)

	res, err := svc.History(ctx, 10, dto.PageQuery{Page: 2})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "5", res.Items[0].ID)
	assert.Equal(t, 12.35, res.Items[0].DistanceMeters)
	assert.Equal(t, dto.PageMeta{CurrentPage: 2, LastPage: 3, PerPage: 15, Total: 31}, res.Meta)
}

func TestParseReportFilter(t *testing.T) {
	f, err := ParseReportFilter(dto.ReportQuery{}, wib)
	require.NoError(t, err)
	assert.Nil(t, f.From)
	assert.Nil(t, f.To)
	assert.Nil(t, f.ScheduleID)

	f, err = ParseReportFilter(dto.ReportQuery{StartDate: "2025-12-01", EndDate: "2025-12-31", ScheduleID: "4"}, wib)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, wib), *f.From)
	assert.Equal(t, int64(4), *f.ScheduleID)

	_, err = ParseReportFilter(dto.ReportQuery{StartDate: "01/12/2025"}, wib)
	assert.True(t, stderrors.Is(err, pkgerrors.InvalidInput))

	_, err = ParseReportFilter(dto.ReportQuery{ScheduleID: "abc"}, wib)
	assert.True(t, stderrors.Is(err, pkgerrors.InvalidInput))

	_, err = ParseReportFilter(dto.ReportQuery{StartDate: "2025-12-31", EndDate: "2025-12-01"}, wib)
	assert.True(t, stderrors.Is(err, pkgerrors.InvalidInput))
}

func TestReport(t *testing.T) {
	reader := new(MockReader)
	svc := newAttendanceService(t, newFakeStore(), nil, reader, nil)
	ctx := context.Background()

	reader.On("Report", ctx, mock.MatchedBy(func(f attendance.ReportFilter) bool {
		return f.ScheduleID != nil && *f.ScheduleID == 1 && f.Location == wib
	})).Return([]repository.ReportRow{{ID: 1, UserID: 10, ScheduleID: 1, UserName: "Budi", DistanceMeters: 1567.931}}, nil)

	items, err := svc.Report(ctx, dto.ReportQuery{ScheduleID: "1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Budi", items[0].UserName)
	assert.Equal(t, 1567.93, items[0].DistanceMeters)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("reads tally", func(t *testing.T) {
		reader, tally := new(MockReader), new(MockTally)
		svc := newAttendanceService(t, newFakeStore(testSchedule()), nil, reader, tally)
		tally.On("Get", ctx, int64(1)).Return(map[string]int64{"present": 3, "rejected": 2}, nil)

		res, err := svc.Summary(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, &dto.AttendanceSummaryResponse{ScheduleID: "1", Present: 3, Rejected: 2, Total: 5}, res)
		reader.AssertNotCalled(t, "CountBySchedule", mock.Anything, mock.Anything)
	})

	t.Run("falls back to database", func(t *testing.T) {
		reader, tally := new(MockReader), new(MockTally)
		svc := newAttendanceService(t, newFakeStore(testSchedule()), nil, reader, tally)
		tally.On("Get", ctx, int64(1)).Return(nil, stderrors.New("redis down"))
		reader.On("CountBySchedule", ctx, int64(1)).Return(map[string]int64{"present": 1}, nil)

		res, err := svc.Summary(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Total)
	})

	t.Run("unknown schedule", func(t *testing.T) {
		svc := newAttendanceService(t, newFakeStore(), nil, new(MockReader), new(MockTally))
		_, err := svc.Summary(ctx, "9")
		assert.True(t, stderrors.Is(err, pkgerrors.ScheduleNotFound))
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := newAttendanceService(t, newFakeStore(), nil, new(MockReader), new(MockTally))
		_, err := svc.Summary(ctx, "x")
		assert.True(t, stderrors.Is(err, pkgerrors.InvalidInput))
	})
}

// memoryTally 内存版计数缓存
type memoryTally struct {
	counts map[int64]map[string]int64
}

func (m *memoryTally) Get(_ context.Context, scheduleID int64) (map[string]int64, error) {
	return m.counts[scheduleID], nil
}

func (m *memoryTally) Invalidate(_ context.Context, scheduleID int64) error {
	delete(m.counts, scheduleID)
	return nil
}

// storeReader 直接按 fakeStore 中的记录统计
type storeReader struct {
	AttendanceReader
	store *fakeStore
}

func (r storeReader) CountBySchedule(_ context.Context, scheduleID int64) (map[string]int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	counts := map[string]int64{}
	for _, rec := range r.store.records {
		if rec.ScheduleID == scheduleID {
			counts[string(rec.Status)]++
		}
	}
	return counts, nil
}

func TestSummaryAfterFailedPublish(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(testSchedule())
	reader := storeReader{store: store}
	tally := &memoryTally{counts: map[int64]map[string]int64{}}

	// 发布成功时模拟消费者：从记录重算并覆盖计数
	brokerDown := false
	publish := func(ctx context.Context, msg model.AttendanceRecordedMessage) error {
		if brokerDown {
			return stderrors.New("broker down")
		}
		counts, _ := reader.CountBySchedule(ctx, msg.ScheduleID)
		tally.counts[msg.ScheduleID] = counts
		return nil
	}

	now := time.Date(2025, 12, 30, 9, 0, 0, 0, wib)
	engine, err := attendance.NewEngine(store, attendance.Config{}, attendance.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	svc := NewAttendanceService(AttendanceDeps{Engine: engine, Store: store, Reader: reader, Tally: tally, Publish: publish, Location: wib})

	req := dto.SubmitAttendanceRequest{ScheduleID: 1, Latitude: f64(-6.2), Longitude: f64(106.816666)}
	_, err = svc.Submit(ctx, 10, req)
	require.NoError(t, err)

	res, err := svc.Summary(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Present)

	brokerDown = true
	_, err = svc.Submit(ctx, 11, req)
	require.NoError(t, err)
	require.Len(t, store.records, 2)

	res, err = svc.Summary(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, &dto.AttendanceSummaryResponse{ScheduleID: "1", Present: 2, Rejected: 0, Total: 2}, res)
}

func TestSubmitPublishFailureInvalidatesTally(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(testSchedule())
	tally := new(MockTally)
	tally.On("Invalidate", mock.Anything, int64(1)).Return(stderrors.New("redis down"))

	svc := newAttendanceService(t, store, &published{err: stderrors.New("broker down")}, nil, tally)
	res, err := svc.Submit(ctx, 10, dto.SubmitAttendanceRequest{ScheduleID: 1, Latitude: f64(-6.2), Longitude: f64(106.816666)})

	require.NoError(t, err)
	assert.Equal(t, "accepted", res.Classification)
	tally.AssertExpectations(t)
}
