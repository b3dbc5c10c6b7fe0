package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/grocy-backend/internal/models"
)

func seedReview(t *testing.T, db *gorm.DB, productID, userID int64, rating float64, status string, createdAt time.Time) *models.Review {
	r := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Status:    status,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

// ==================== 评价仓储测试 ====================

func TestReviewRepository_UniquePerProductUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Review{ProductID: 1, UserID: 1, Rating: 4, Status: models.ReviewStatusEnabled}))
	err := repo.Create(ctx, &models.Review{ProductID: 1, UserID: 1, Rating: 5, Status: models.ReviewStatusEnabled})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	exists, err := repo.ExistsByProductAndUser(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByProductAndUser(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReviewRepository_ListEnabledSorting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	old := seedReview(t, db, 1, 1, 5, models.ReviewStatusEnabled, base)
	mid := seedReview(t, db, 1, 2, 3, models.ReviewStatusEnabled, base.Add(time.Hour))
	recent := seedReview(t, db, 1, 3, 4.5, models.ReviewStatusEnabled, base.Add(2*time.Hour))
	seedReview(t, db, 1, 4, 5, models.ReviewStatusDisabled, base.Add(3*time.Hour))
	seedReview(t, db, 2, 1, 2, models.ReviewStatusEnabled, base.Add(4*time.Hour))

	require.NoError(t, db.Model(mid).Updates(map[string]interface{}{"helpful_count": 3, "not_helpful_count": 1}).Error)
	require.NoError(t, db.Model(recent).Updates(map[string]interface{}{"helpful_count": 3, "not_helpful_count": 0}).Error)

	pid := int64(1)
	byDate, total, err := repo.ListEnabled(ctx, ReviewListParams{Page: 1, PageSize: 10, ProductID: &pid, Sort: ReviewSortDate})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "隐藏的评价不出现在列表中")
	assert.Equal(t, []int64{recent.ID, mid.ID, old.ID}, reviewIDs(byDate))

	byRating, _, err := repo.ListEnabled(ctx, ReviewListParams{Page: 1, PageSize: 10, ProductID: &pid, Sort: ReviewSortRating})
	require.NoError(t, err)
	assert.Equal(t, []int64{old.ID, recent.ID, mid.ID}, reviewIDs(byRating))

	byHelpful, _, err := repo.ListEnabled(ctx, ReviewListParams{Page: 1, PageSize: 10, ProductID: &pid, Sort: ReviewSortHelpful})
	require.NoError(t, err)
	assert.Equal(t, []int64{recent.ID, mid.ID, old.ID}, reviewIDs(byHelpful))

	rating := 3.0
	exact, total, err := repo.ListEnabled(ctx, ReviewListParams{Page: 1, PageSize: 10, Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, mid.ID, exact[0].ID)

	page2, total, err := repo.ListEnabled(ctx, ReviewListParams{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, page2, 1)
}

func reviewIDs(reviews []*models.Review) []int64 {
	ids := make([]int64, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestReviewRepository_AdjustCountersNeverNegative(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	r := seedReview(t, db, 1, 1, 4, models.ReviewStatusEnabled, time.Now())

	require.NoError(t, repo.AdjustCounters(ctx, db, r.ID, 1, 0))
	require.NoError(t, repo.AdjustCounters(ctx, db, r.ID, -1, 1))
	require.NoError(t, repo.AdjustCounters(ctx, db, r.ID, 0, -5))

	found, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.HelpfulCount)
	assert.Equal(t, 0, found.NotHelpfulCount)
}

func TestReviewRepository_DeleteRemovesVotes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	voteRepo := NewReviewVoteRepository(db)
	ctx := context.Background()

	r := seedReview(t, db, 1, 1, 4, models.ReviewStatusEnabled, time.Now())
	require.NoError(t, voteRepo.Create(ctx, db, &models.ReviewVote{ReviewID: r.ID, UserID: 2, Value: models.VoteHelpful}))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.Delete(ctx, tx, r.ID)
	}))

	_, err := repo.GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := voteRepo.CountByReview(ctx, r.ID, models.VoteHelpful)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReviewRepository_AdminReplyRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	r := seedReview(t, db, 1, 1, 4, models.ReviewStatusEnabled, time.Now())
	reply := models.AdminReply{AdminID: 9, Content: "Thanks!", CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, repo.UpdateFields(ctx, db, r.ID, map[string]interface{}{"admin_reply": reply}))

	found, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, found.AdminReply)
	assert.Equal(t, int64(9), found.AdminReply.AdminID)
	assert.Equal(t, "Thanks!", found.AdminReply.Content)
	assert.True(t, reply.CreatedAt.Equal(found.AdminReply.CreatedAt))
}

func TestReviewRepository_Filter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	cat := seedCategory(t, db, "Grocery")
	milk := seedProduct(t, db, cat.ID, "Whole Milk", "2.00", nil)
	bread := seedProduct(t, db, cat.ID, "Bread", "1.00", nil)

	now := time.Now()
	seedReview(t, db, milk.ID, 1, 5, models.ReviewStatusEnabled, now)
	seedReview(t, db, milk.ID, 2, 2, models.ReviewStatusDisabled, now.Add(time.Minute))
	seedReview(t, db, bread.ID, 1, 3.5, models.ReviewStatusEnabled, now.Add(2*time.Minute))

	list, total, err := repo.Filter(ctx, ReviewFilterParams{Page: 1, PageSize: 10, ProductName: "milk"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	list, total, err = repo.Filter(ctx, ReviewFilterParams{Page: 1, PageSize: 10, Status: models.ReviewStatusDisabled})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 2.0, list[0].Rating)

	minR, maxR := 3.0, 4.0
	list, total, err = repo.Filter(ctx, ReviewFilterParams{Page: 1, PageSize: 10, MinRating: &minR, MaxRating: &maxR})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.NotNil(t, list[0].Product)
	assert.Equal(t, "Bread", list[0].Product.Name)
}

// ==================== 评价统计测试 ====================

func TestReviewRepository_Stats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	cat := seedCategory(t, db, "Grocery")
	milk := seedProduct(t, db, cat.ID, "Milk", "2.00", nil)
	bread := seedProduct(t, db, cat.ID, "Bread", "1.00", nil)

	jan := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	seedReview(t, db, milk.ID, 1, 5, models.ReviewStatusEnabled, jan)
	seedReview(t, db, milk.ID, 2, 4, models.ReviewStatusEnabled, jan)
	seedReview(t, db, milk.ID, 3, 1, models.ReviewStatusDisabled, feb)
	seedReview(t, db, bread.ID, 1, 4, models.ReviewStatusEnabled, feb)

	avg, err := repo.AverageByProduct(ctx, nil)
	require.NoError(t, err)
	require.Len(t, avg, 2)
	assert.Equal(t, milk.ID, avg[0].ProductID)
	assert.InDelta(t, 4.5, avg[0].AverageRating, 0.001)
	assert.Equal(t, int64(2), avg[0].ReviewCount)

	avg, err = repo.AverageByProduct(ctx, &bread.ID)
	require.NoError(t, err)
	require.Len(t, avg, 1)
	assert.Equal(t, int64(1), avg[0].ReviewCount)

	dist, err := repo.Distribution(ctx, nil)
	require.NoError(t, err)
	require.Len(t, dist, 2)
	assert.Equal(t, 4.0, dist[0].Rating)
	assert.Equal(t, int64(2), dist[0].Count)
	assert.Equal(t, 5.0, dist[1].Rating)

	top, err := repo.TopProducts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Milk", top[0].ProductName)
	assert.Equal(t, int64(2), top[0].ReviewCount)

	top, err = repo.TopProducts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	monthly, err := repo.Activity(ctx, nil, nil, "month")
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2024-01", monthly[0].Period)
	assert.Equal(t, int64(2), monthly[0].Count)
	assert.Equal(t, "2024-02", monthly[1].Period)
	assert.Equal(t, int64(2), monthly[1].Count)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	daily, err := repo.Activity(ctx, &start, nil, "day")
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "2024-02-03", daily[0].Period)
}

// ==================== 投票、举报与审核仓储测试 ====================

func TestReviewVoteRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewVoteRepository(db)
	ctx := context.Background()

	vote := &models.ReviewVote{ReviewID: 1, UserID: 2, Value: models.VoteHelpful}
	require.NoError(t, repo.Create(ctx, db, vote))

	err := repo.Create(ctx, db, &models.ReviewVote{ReviewID: 1, UserID: 2, Value: models.VoteNotHelpful})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, repo.UpdateValue(ctx, db, vote.ID, models.VoteNotHelpful))
	found, err := repo.Get(ctx, db, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.VoteNotHelpful, found.Value)

	_, err = repo.Get(ctx, db, 1, 3)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReviewReportRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewReportRepository(db)
	ctx := context.Background()

	first := &models.ReviewReport{ReviewID: 1, UserID: 2, Reason: "spam", Status: models.ReportStatusOpen}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, &models.ReviewReport{ReviewID: 1, UserID: 2, Reason: "spam", Status: models.ReportStatusOpen}))

	open, total, err := repo.List(ctx, models.ReportStatusOpen, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "重复举报不去重")
	assert.Len(t, open, 2)

	rows, err := repo.Resolve(ctx, first.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	found, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, found.Status)
	assert.NotNil(t, found.ResolvedAt)

	_, total, err = repo.List(ctx, models.ReportStatusOpen, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestReviewAuditRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewAuditRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, db, &models.ReviewAudit{ReviewID: 1, AdminID: 9, Action: models.AuditActionEdit, Previous: "a", Next: "b"}))
	require.NoError(t, repo.Append(ctx, db, &models.ReviewAudit{ReviewID: 1, AdminID: 9, Action: models.AuditActionDisable, Previous: "enabled", Next: "disabled"}))
	require.NoError(t, repo.Append(ctx, db, &models.ReviewAudit{ReviewID: 2, AdminID: 9, Action: models.AuditActionReply, Next: "hi"}))

	audits, err := repo.ListByReview(ctx, 1)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	assert.Equal(t, models.AuditActionEdit, audits[0].Action)
	assert.Equal(t, models.AuditActionDisable, audits[1].Action)
}
