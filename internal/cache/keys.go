package cache

import "fmt"

// Key builders for the hot tier. Every key that can serve a given artifact
// must be derivable here, so invalidation can touch all of them.
func MealKey(fingerprint, mealType string, slot int) string {
	return fmt.Sprintf("meal:%s:%s:%d", fingerprint, mealType, slot)
}

func PlanKey(planID string) string {
	return fmt.Sprintf("plan:%s", planID)
}

func GenLockKey(fingerprint string) string {
	return fmt.Sprintf("lock:gen:%s", fingerprint)
}

func NotifyLockKey(sessionID, planID string) string {
	return fmt.Sprintf("lock:notify:%s:%s", sessionID, planID)
}

func NotifiedKey(sessionID, planID string) string {
	return fmt.Sprintf("notified:%s:%s", sessionID, planID)
}
