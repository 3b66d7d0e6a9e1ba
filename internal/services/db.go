package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate 行级排它锁
// sqlite不支持FOR UPDATE语法，单元测试环境退化为普通查询，
// 依赖sqlite单写连接串行化；生产环境（postgres）照常加锁
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
