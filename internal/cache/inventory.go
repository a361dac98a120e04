package cache

import (
	"fmt"
	"time"
)

const (
	UserKeyPrefix           = "user:%d"
	RevokedSessionKeyPrefix = "session:revoked:%s"
)

const (
	UserTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func RevokedSessionKey(jti string) string {
	return fmt.Sprintf(RevokedSessionKeyPrefix, jti)
}
