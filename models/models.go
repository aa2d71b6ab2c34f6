// file: models/models.go
package models

// All 返回需要迁移的全部模型，顺序即建表顺序
func All() []interface{} {
	return []interface{}{
		&User{},
		&Team{},
		&TeamMember{},
		&Challenge{},
		&Flag{},
		&Submission{},
		&Solve{},
		&SolveFeed{},
	}
}
