package cache

import (
	"strconv"
	"strings"
)

const (
	GlobalKeyPrefix = "studyquiz"

	ServiceQuiz = "quiz"
	ObjectQuiz  = "detail"
)

// GenerateCacheKey builds "studyquiz:<service>:<object>:<id>[:<params joined by _>]".
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return baseKey + ":" + strings.Join(paramsKey, "_")
	}
	return baseKey
}

// QuizKey is the cache key of a stored quiz.
func QuizKey(id int64) string {
	return GenerateCacheKey(ServiceQuiz, ObjectQuiz, strconv.FormatInt(id, 10))
}
