package middleware

import (
	"strconv"

	"studyquiz/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// QuizIDKey is the fiber Locals key holding the parsed quiz id.
const QuizIDKey = "quizID"

// ValidateQuizID parses the :id route parameter. Ids that are not positive
// integers cannot name a stored quiz and are reported as not found.
func ValidateQuizID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return domain.NewError(domain.CodeQuizNotFound, "Quiz not found", nil).
				WithContext("quiz_id", c.Params("id"))
		}
		c.Locals(QuizIDKey, id)
		return c.Next()
	}
}

// QuizID returns the id stored by ValidateQuizID.
func QuizID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(QuizIDKey).(int64)
	return id
}
