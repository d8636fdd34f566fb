package models

// All lists every table the service migrates.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Challenge{},
		&Attempt{},
		&UserBadge{},
		&Certificate{},
	}
}
