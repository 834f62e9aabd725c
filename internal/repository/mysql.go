package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/lvdashuaibi/ledgervote/config"
	"github.com/lvdashuaibi/ledgervote/internal/model"
)

// MySQLRepository 历史记录归档，主库写从库读
type MySQLRepository struct {
	masterDB *sql.DB
	slaveDB  *sql.DB
	logger   *zap.SugaredLogger
}

func NewMySQLRepository(ctx context.Context, cfg config.MySQLConfig, logger *zap.SugaredLogger) (*MySQLRepository, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	masterDB, err := openDB(cfg.Master, cfg)
	if err != nil {
		return nil, fmt.Errorf("连接主数据库失败: %w", err)
	}
	if err = masterDB.PingContext(ctx); err != nil {
		masterDB.Close()
		return nil, fmt.Errorf("主数据库连接测试失败: %w", err)
	}

	slaveDB := masterDB
	if cfg.Slave != "" {
		slaveDB, err = openDB(cfg.Slave, cfg)
		if err != nil {
			masterDB.Close()
			return nil, fmt.Errorf("连接从数据库失败: %w", err)
		}
		if err = slaveDB.PingContext(ctx); err != nil {
			logger.Warnw("从数据库连接测试失败，将使用主数据库代替", "err", err)
			slaveDB.Close()
			slaveDB = masterDB
		}
	}

	return &MySQLRepository{
		masterDB: masterDB,
		slaveDB:  slaveDB,
		logger:   logger.With("module", "archive-store"),
	}, nil
}

func openDB(dsn string, cfg config.MySQLConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

const insertHistoryQuery = `INSERT IGNORE INTO history_archive
	(kind, record_key, record_id, observed_ts, tx_hash, block_number, payload)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// SaveHistoryEntries 在一个事务中追加归档记录，(kind, record_key) 已存在的跳过，返回新插入条数
func (r *MySQLRepository) SaveHistoryEntries(ctx context.Context, entries []model.ArchiveEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := r.masterDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("开始事务失败: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertHistoryQuery)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("准备归档语句失败: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, e := range entries {
		result, err := stmt.ExecContext(ctx,
			string(e.Kind),
			e.Key,
			e.RecordID,
			nullInt64(e.ObservedTS),
			nullString(e.TxHash),
			nullString(e.BlockNumber),
			e.Payload,
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("归档 %s/%s 失败: %w", e.Kind, e.Key, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("获取插入结果失败: %w", err)
		}
		inserted += rowsAffected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("提交事务失败: %w", err)
	}

	r.logger.Debugw("归档完成", "entries", len(entries), "inserted", inserted)
	return inserted, nil
}

// CountByKind 每种实体已归档的条数
func (r *MySQLRepository) CountByKind(ctx context.Context) ([]model.ArchiveStat, error) {
	query := "SELECT kind, COUNT(*) FROM history_archive GROUP BY kind ORDER BY kind"
	rows, err := r.slaveDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询归档统计失败: %w", err)
	}
	defer rows.Close()

	var stats []model.ArchiveStat
	for rows.Next() {
		var (
			kind string
			stat model.ArchiveStat
		)
		if err := rows.Scan(&kind, &stat.Count); err != nil {
			return nil, fmt.Errorf("扫描归档统计失败: %w", err)
		}
		stat.Kind = model.Kind(kind)
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("迭代归档统计失败: %w", err)
	}

	return stats, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Close 关闭数据库连接
func (r *MySQLRepository) Close() {
	if r.masterDB != nil {
		r.masterDB.Close()
	}
	if r.slaveDB != nil && r.slaveDB != r.masterDB {
		r.slaveDB.Close()
	}
}
