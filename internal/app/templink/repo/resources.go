package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"media.local/internal/app/templink"
)

var ErrResourceNotFound = errors.New("resource not found")

type ResourceMetaData struct {
	Path        string    `json:"path"`
	Alias       string    `json:"alias"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	SHA256      string    `json:"sha256"`
	HitCount    int64     `json:"hit_count"`
	FetchedAt   time.Time `json:"fetched_at"`
}

type ResourcesRepo struct {
	db *pgxpool.Pool
}

func NewResourcesRepo(db *pgxpool.Pool) *ResourcesRepo {
	return &ResourcesRepo{db: db}
}

/*
登记一次成功回源：插入（或刷新）资源行，并保证它有对外别名。
别名 = sqids(id)，所以要先拿到 id 再回填。
*/
func (r *ResourcesRepo) RecordFetch(ctx context.Context, path, contentType string, size int64, sha256Hex string) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	//开启事务
	tx, err := r.db.Begin(dbctx)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer tx.Rollback(dbctx) //事务提交成功后 rollback 会无效/返回错误，可忽略

	var id int64
	var alias string
	if err := tx.QueryRow(dbctx, `
INSERT INTO resources (path, content_type, size_bytes, sha256)
VALUES ($1,$2,$3,$4)
ON CONFLICT (path) DO UPDATE
  SET content_type=EXCLUDED.content_type,
      size_bytes=EXCLUDED.size_bytes,
      sha256=EXCLUDED.sha256,
      fetched_at=now()
RETURNING id, COALESCE(alias,'')`,
		path, contentType, size, sha256Hex,
	).Scan(&id, &alias); err != nil {
		slog.Error(err.Error())
		return err
	}

	if alias == "" {
		newAlias, err := templink.AliasEncode(uint64(id))
		if err != nil {
			slog.Error(err.Error())
			return err
		}

		// Only set alias when missing; if another transaction already set it, fall back to SELECT.
		if err := tx.
			QueryRow(dbctx, "UPDATE resources SET alias=$1 WHERE id=$2 AND (alias IS NULL OR alias='') RETURNING alias", newAlias, id).
			Scan(&alias); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				if err := tx.QueryRow(dbctx, "SELECT alias FROM resources WHERE id=$1", id).Scan(&alias); err != nil {
					slog.Error(err.Error())
					return err
				}
			} else {
				slog.Error(err.Error())
				return err
			}
		}
	}

	if err := tx.Commit(dbctx); err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (r *ResourcesRepo) FindByAlias(ctx context.Context, alias string) (*ResourceMetaData, error) {
	var data ResourceMetaData
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	if err := r.db.
		QueryRow(dbctx, "SELECT path,COALESCE(alias,''),content_type,size_bytes,sha256,hit_count,fetched_at FROM resources WHERE alias=$1", alias).
		Scan(&data.Path, &data.Alias, &data.ContentType, &data.SizeBytes, &data.SHA256, &data.HitCount, &data.FetchedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		slog.Error(err.Error())
		return nil, err
	}
	return &data, nil
}

// DeleteByAlias 删除登记行并返回其路径（调用方还要清内容缓存）。
func (r *ResourcesRepo) DeleteByAlias(ctx context.Context, alias string) (string, error) {
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var path string
	err := r.db.QueryRow(dbctx, "DELETE FROM resources WHERE alias=$1 RETURNING path", alias).Scan(&path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrResourceNotFound
		}
		slog.Error(err.Error())
		return "", err
	}
	return path, nil
}

// ListPaths 返回所有已登记路径（启动时给布隆过滤器预热）。
func (r *ResourcesRepo) ListPaths(ctx context.Context) ([]string, error) {
	dbctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.db.Query(dbctx, "SELECT path FROM resources")
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	return paths, nil
}

type AccessStat struct {
	ID         int64     `json:"id"` //用于下一次查询的分页cursor
	Kind       string    `json:"kind"`
	AccessedAt time.Time `json:"accessed_at"`
	Referer    string    `json:"referer"`
	UserAgent  string    `json:"user_agent"`
}

type StatsResponse struct {
	TotalHits    int64        `json:"total_hits"`
	RecentAccess []AccessStat `json:"recent_access"`
	NextCursor   *int64       `json:"next_cursor,omitempty"`
}

func (r *ResourcesRepo) ListStatsByPath(ctx context.Context, path string, limit int, cursor int64) (*StatsResponse, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	//查总访问数
	var totalHits int64
	if err := r.db.QueryRow(dbctx, `SELECT hit_count FROM resources WHERE path = $1`, path).Scan(&totalHits); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		slog.Error(err.Error())
		return nil, err
	}
	//查明细列表
	var rows pgx.Rows
	var err error
	if cursor == 0 {
		rows, err = r.db.Query(dbctx, `SELECT id,kind,accessed_at,referer,user_agent FROM access_stats WHERE path = $1 ORDER BY id DESC LIMIT $2`, path, limit)
	} else {
		rows, err = r.db.Query(dbctx, `SELECT id,kind,accessed_at,referer,user_agent FROM access_stats WHERE path = $1 AND id<$2 ORDER BY id DESC LIMIT $3`, path, cursor, limit)
	}
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var access []AccessStat
	for rows.Next() {
		var item AccessStat
		if err := rows.Scan(&item.ID, &item.Kind, &item.AccessedAt, &item.Referer, &item.UserAgent); err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		access = append(access, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	var nextCursor *int64
	if len(access) == limit {
		//还有下一页
		nextCursor = &access[len(access)-1].ID
	}

	return &StatsResponse{
		TotalHits:    totalHits,
		RecentAccess: access,
		NextCursor:   nextCursor,
	}, nil
}
