package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
	"github.com/jackc/pgx/v5"
)

const (
	defaultSearchLimit = 20
	influencerColumns  = `id, channel_id, name, handle, platform, followers, total_views, video_count,
		engagement_rate, avg_likes, categories, verified, profile_image_url, bio, recent_videos,
		created_at, updated_at`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// UpsertInfluencer inserts inf or refreshes the row with the same name and
// platform. ID and timestamps are written back to inf.
func (r *Repository) UpsertInfluencer(ctx context.Context, inf *domain.Influencer) error {
	if inf.Platform == "" {
		inf.Platform = domain.PlatformYouTube
	}
	if inf.Categories == nil {
		inf.Categories = []string{}
	}
	if inf.RecentVideos == nil {
		inf.RecentVideos = []domain.RecentVideo{}
	}

	videos, err := json.Marshal(inf.RecentVideos)
	if err != nil {
		return fmt.Errorf("marshal recent videos for %q: %w", inf.Name, err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO influencers (channel_id, name, handle, platform, followers, total_views, video_count,
			engagement_rate, avg_likes, categories, verified, profile_image_url, bio, recent_videos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (name, platform) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			handle = EXCLUDED.handle,
			followers = EXCLUDED.followers,
			total_views = EXCLUDED.total_views,
			video_count = EXCLUDED.video_count,
			engagement_rate = EXCLUDED.engagement_rate,
			avg_likes = EXCLUDED.avg_likes,
			categories = EXCLUDED.categories,
			verified = EXCLUDED.verified,
			profile_image_url = EXCLUDED.profile_image_url,
			bio = EXCLUDED.bio,
			recent_videos = EXCLUDED.recent_videos,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		inf.ChannelID, inf.Name, inf.Handle, inf.Platform, inf.Followers, inf.TotalViews, inf.VideoCount,
		inf.EngagementRate, inf.AvgLikes, inf.Categories, inf.Verified, inf.ProfileImageURL, inf.Bio, videos,
	).Scan(&inf.ID, &inf.CreatedAt, &inf.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert influencer %q: %w", inf.Name, err)
	}
	return nil
}

// SearchInfluencers matches keywords against name, handle and bio and
// categories by overlap, most followed first.
func (r *Repository) SearchInfluencers(ctx context.Context, filter domain.SearchFilter) ([]domain.Influencer, error) {
	query, args := buildSearchQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search influencers: %w", err)
	}
	defer rows.Close()

	items := []domain.Influencer{}
	for rows.Next() {
		inf, err := scanInfluencer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, inf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over influencers: %w", err)
	}
	return items, nil
}

func buildSearchQuery(filter domain.SearchFilter) (string, []any) {
	args := []any{domain.PlatformYouTube}
	var b strings.Builder
	b.WriteString("SELECT " + influencerColumns + " FROM influencers WHERE platform = $1")

	var clauses []string
	for _, kw := range filter.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		args = append(args, "%"+likeEscaper.Replace(kw)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d OR handle ILIKE $%d OR bio ILIKE $%d", n, n, n))
	}
	if len(clauses) > 0 {
		b.WriteString(" AND (" + strings.Join(clauses, " OR ") + ")")
	}

	if len(filter.Categories) > 0 {
		args = append(args, filter.Categories)
		fmt.Fprintf(&b, " AND categories && $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&b, " ORDER BY followers DESC LIMIT $%d", len(args))

	return b.String(), args
}

func scanInfluencer(row pgx.Row) (domain.Influencer, error) {
	var inf domain.Influencer
	var videos []byte
	err := row.Scan(&inf.ID, &inf.ChannelID, &inf.Name, &inf.Handle, &inf.Platform, &inf.Followers,
		&inf.TotalViews, &inf.VideoCount, &inf.EngagementRate, &inf.AvgLikes, &inf.Categories,
		&inf.Verified, &inf.ProfileImageURL, &inf.Bio, &videos, &inf.CreatedAt, &inf.UpdatedAt)
	if err != nil {
		return inf, fmt.Errorf("scan influencer: %w", err)
	}

	if len(videos) > 0 {
		if err := json.Unmarshal(videos, &inf.RecentVideos); err != nil {
			return inf, fmt.Errorf("unmarshal recent videos of %q: %w", inf.Name, err)
		}
	}
	return inf, nil
}

// ListIdentities returns the name and handle of every stored influencer on
// the platform.
func (r *Repository) ListIdentities(ctx context.Context) ([]domain.Identity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, handle FROM influencers WHERE platform = $1`, domain.PlatformYouTube,
	)
	if err != nil {
		return nil, fmt.Errorf("query influencer identities: %w", err)
	}
	defer rows.Close()

	var ids []domain.Identity
	for rows.Next() {
		var id domain.Identity
		if err := rows.Scan(&id.Name, &id.Handle); err != nil {
			return nil, fmt.Errorf("scan influencer identity: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate influencer identities: %w", err)
	}
	return ids, nil
}

// Count stored influencers
func (r *Repository) CountInfluencers(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM influencers WHERE platform = $1`, domain.PlatformYouTube,
	).Scan(&total)

	if err != nil {
		return 0, fmt.Errorf("count influencers: %w", err)
	}
	return total, nil
}
