package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTx 将事务句柄放入 context，之后经 Conn 取连接的仓储都会加入该事务
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext 取出 context 中的事务句柄
func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// Conn 返回当前 context 应使用的连接：事务中返回事务句柄，否则返回 fallback
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

// Transaction 在一个事务内执行 fn，fn 返回错误或 panic 时整体回滚
// 已处于事务中时直接复用外层事务
func Transaction(ctx context.Context, gdb *gorm.DB, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}
