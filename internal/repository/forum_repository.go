package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-analytics-api/internal/models"
)

// ForumRepository collects posting, rating and instructor engagement metrics
// per forum.
type ForumRepository struct {
	db *sqlx.DB
}

func NewForumRepository(db *sqlx.DB) *ForumRepository {
	return &ForumRepository{db: db}
}

type forumActivityRow struct {
	UserID             int64   `db:"user_id"`
	ForumID            int64   `db:"forum_id"`
	ForumName          string  `db:"forum_name"`
	PostsCreated       int     `db:"posts_created"`
	RepliesMade        int     `db:"replies_made"`
	AvgResponseLatency float64 `db:"avg_response_latency"`
	PostsWithRatings   int     `db:"posts_with_ratings"`
	AvgPeerRating      float64 `db:"avg_peer_rating"`
}

type instructorReplyRow struct {
	UserID            int64 `db:"user_id"`
	ForumID           int64 `db:"forum_id"`
	InstructorReplies int   `db:"instructor_replies"`
}

// Collect returns forum metrics keyed by user id and forum id. Instructor
// reply counts are an overlay merged into forums the user already posted in.
func (r *ForumRepository) Collect(ctx context.Context, courseID int64, userIDs []int64) (map[int64]map[int64]*models.ForumMetrics, error) {
	ids := pq.Array(userIDs)

	activityQuery := `
		SELECT
			p.user_id,
			f.id AS forum_id,
			f.name AS forum_name,
			COUNT(CASE WHEN p.parent_id IS NULL THEN 1 END) AS posts_created,
			COUNT(CASE WHEN p.parent_id IS NOT NULL THEN 1 END) AS replies_made,
			COALESCE(AVG(EXTRACT(EPOCH FROM (p.created_at - d.time_created)) / 60), 0) AS avg_response_latency,
			COUNT(CASE WHEN p.rating > 0 THEN 1 END) AS posts_with_ratings,
			COALESCE(AVG(NULLIF(p.rating, 0)), 0) AS avg_peer_rating
		FROM forum_posts p
		JOIN forum_discussions d ON d.id = p.discussion_id
		JOIN forums f ON f.id = d.forum_id
		WHERE f.course_id = $1 AND p.user_id = ANY($2)
		GROUP BY p.user_id, f.id, f.name`

	var activity []forumActivityRow
	if err := r.db.SelectContext(ctx, &activity, activityQuery, courseID, ids); err != nil {
		return nil, err
	}

	result := make(map[int64]map[int64]*models.ForumMetrics)
	for _, row := range activity {
		if result[row.UserID] == nil {
			result[row.UserID] = make(map[int64]*models.ForumMetrics)
		}
		result[row.UserID][row.ForumID] = &models.ForumMetrics{
			Name:               row.ForumName,
			PostsCreated:       row.PostsCreated,
			RepliesMade:        row.RepliesMade,
			AvgResponseLatency: round2(row.AvgResponseLatency),
			PostsWithRatings:   row.PostsWithRatings,
			AvgPeerRating:      round2(row.AvgPeerRating),
		}
	}

	replyQuery := `
		SELECT
			parent.user_id,
			f.id AS forum_id,
			COUNT(reply.id) AS instructor_replies
		FROM forum_posts parent
		JOIN forum_posts reply ON reply.parent_id = parent.id
		JOIN users ru ON ru.id = reply.user_id AND ru.role IN ('ADMIN', 'INSTRUCTOR', 'ASSISTANT')
		JOIN forum_discussions d ON d.id = parent.discussion_id
		JOIN forums f ON f.id = d.forum_id
		WHERE f.course_id = $1 AND parent.user_id = ANY($2)
		GROUP BY parent.user_id, f.id`

	var replies []instructorReplyRow
	if err := r.db.SelectContext(ctx, &replies, replyQuery, courseID, ids); err != nil {
		return nil, err
	}
	for _, row := range replies {
		if base, ok := result[row.UserID][row.ForumID]; ok {
			base.InstructorReplies = row.InstructorReplies
		}
	}

	return result, nil
}
