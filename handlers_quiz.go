package main

import (
	"net/http"
	"time"

	"quizbe/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Question bank and quiz lifecycle. Admin routes manage the bank and
// assemble quizzes; student routes list published quizzes for their
// class and take them. Scoring happens server side, never trusting the
// client with the correct choices.

func createQuestionHandler(c *gin.Context) {
	var req struct {
		CourseID uint   `json:"courseId" binding:"required"`
		Text     string `json:"text" binding:"required"`
		Type     string `json:"type"`
		Points   int    `json:"points"`
		Choices  []struct {
			Text    string `json:"text" binding:"required"`
			Correct bool   `json:"correct"`
		} `json:"choices"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	qType := req.Type
	if qType == "" {
		qType = "MCQ"
	}
	if qType != "MCQ" && qType != "OPEN" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "type must be MCQ or OPEN"})
		return
	}
	if qType == "MCQ" {
		correct := 0
		for _, ch := range req.Choices {
			if ch.Correct {
				correct++
			}
		}
		if len(req.Choices) < 2 || correct == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "MCQ questions need at least two choices and one correct"})
			return
		}
	}
	points := req.Points
	if points <= 0 {
		points = 1
	}
	question := models.Question{CourseID: req.CourseID, Text: req.Text, Type: qType, Points: points}
	for _, ch := range req.Choices {
		question.Choices = append(question.Choices, models.Choice{Text: ch.Text, Correct: ch.Correct})
	}
	if err := db.Create(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": question})
}

func listQuestionsHandler(c *gin.Context) {
	q := db.Preload("Choices").Order("id")
	if courseID := c.Query("courseId"); courseID != "" {
		q = q.Where("course_id = ?", courseID)
	}
	var questions []models.Question
	if err := q.Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": questions})
}

func updateQuestionHandler(c *gin.Context) {
	var question models.Question
	if err := db.Preload("Choices").First(&question, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "question not found"})
		return
	}
	var req struct {
		Text    *string `json:"text"`
		Points  *int    `json:"points"`
		Choices *[]struct {
			Text    string `json:"text"`
			Correct bool   `json:"correct"`
		} `json:"choices"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Points != nil && *req.Points > 0 {
		question.Points = *req.Points
	}
	if err := db.Save(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
		return
	}
	// Replacing choices wholesale is simpler than diffing and submissions
	// keep their own answer rows, so history survives.
	if req.Choices != nil {
		if err := db.Where("question_id = ?", question.ID).Delete(&models.Choice{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
			return
		}
		question.Choices = nil
		for _, ch := range *req.Choices {
			question.Choices = append(question.Choices, models.Choice{QuestionID: question.ID, Text: ch.Text, Correct: ch.Correct})
		}
		if len(question.Choices) > 0 {
			if err := db.Create(&question.Choices).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
				return
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": question})
}

func deleteQuestionHandler(c *gin.Context) {
	if err := db.Delete(&models.Question{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func createQuizHandler(c *gin.Context) {
	var req struct {
		Title           string `json:"title" binding:"required"`
		CourseID        uint   `json:"courseId" binding:"required"`
		SemesterID      *uint  `json:"semesterId"`
		DurationMinutes int    `json:"durationMinutes"`
		StartAt         string `json:"startAt"`
		EndAt           string `json:"endAt"`
		QuestionIDs     []uint `json:"questionIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	quiz := models.Quiz{
		Title:      req.Title,
		CourseID:   req.CourseID,
		SemesterID: req.SemesterID,
		Status:     "DRAFT",
	}
	if req.DurationMinutes > 0 {
		quiz.DurationMinutes = req.DurationMinutes
	}
	if t, ok := parseDate(req.StartAt); ok {
		quiz.StartAt = &t
	}
	if t, ok := parseDate(req.EndAt); ok {
		quiz.EndAt = &t
	}
	for i, qid := range req.QuestionIDs {
		quiz.Questions = append(quiz.Questions, models.QuizQuestion{QuestionID: qid, Position: i})
	}
	if err := db.Create(&quiz).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": quiz})
}

func updateQuizHandler(c *gin.Context) {
	var quiz models.Quiz
	if err := db.First(&quiz, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "quiz not found"})
		return
	}
	if quiz.Status != "DRAFT" {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "only draft quizzes can be edited"})
		return
	}
	var req struct {
		Title           *string `json:"title"`
		SemesterID      *uint   `json:"semesterId"`
		DurationMinutes *int    `json:"durationMinutes"`
		StartAt         *string `json:"startAt"`
		EndAt           *string `json:"endAt"`
		QuestionIDs     *[]uint `json:"questionIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.SemesterID != nil {
		quiz.SemesterID = req.SemesterID
	}
	if req.DurationMinutes != nil && *req.DurationMinutes > 0 {
		quiz.DurationMinutes = *req.DurationMinutes
	}
	if req.StartAt != nil {
		if t, ok := parseDate(*req.StartAt); ok {
			quiz.StartAt = &t
		}
	}
	if req.EndAt != nil {
		if t, ok := parseDate(*req.EndAt); ok {
			quiz.EndAt = &t
		}
	}
	if err := db.Save(&quiz).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
		return
	}
	if req.QuestionIDs != nil {
		if err := db.Where("quiz_id = ?", quiz.ID).Delete(&models.QuizQuestion{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
			return
		}
		for i, qid := range *req.QuestionIDs {
			qq := models.QuizQuestion{QuizID: quiz.ID, QuestionID: qid, Position: i}
			if err := db.Create(&qq).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
				return
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": quiz})
}

func publishQuizHandler(c *gin.Context) {
	var quiz models.Quiz
	if err := db.Preload("Questions").First(&quiz, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "quiz not found"})
		return
	}
	if quiz.Status != "DRAFT" {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "quiz is not a draft"})
		return
	}
	if len(quiz.Questions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cannot publish an empty quiz"})
		return
	}
	if err := db.Model(&quiz).Update("status", "PUBLISHED").Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "publish failed"})
		return
	}
	quiz.Status = "PUBLISHED"
	c.JSON(http.StatusOK, gin.H{"success": true, "data": quiz})
}

func deleteQuizHandler(c *gin.Context) {
	if err := db.Delete(&models.Quiz{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// quizOpenNow applies the optional scheduling window.
func quizOpenNow(q *models.Quiz, now time.Time) bool {
	if q.Status != "PUBLISHED" {
		return false
	}
	if q.StartAt != nil && now.Before(*q.StartAt) {
		return false
	}
	if q.EndAt != nil && now.After(*q.EndAt) {
		return false
	}
	return true
}

// listQuizzesHandler shows students the published quizzes of their own
// class. Admins see everything.
func listQuizzesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Utilisateur introuvable"})
		return
	}
	q := db.Preload("Course").Order("id desc")
	if user.Role != "ADMIN" {
		if user.ClassID == nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": []models.Quiz{}})
			return
		}
		q = q.Where("status = ?", "PUBLISHED").
			Where("course_id IN (?)", db.Model(&models.Course{}).Select("id").Where("class_id = ?", *user.ClassID))
	}
	var quizzes []models.Quiz
	if err := q.Find(&quizzes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": quizzes})
}

// getQuizHandler returns one quiz with its questions. Correct flags are
// stripped for students so the payload can feed the quiz UI directly.
func getQuizHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Utilisateur introuvable"})
		return
	}
	var quiz models.Quiz
	err := db.Preload("Course").
		Preload("Questions", func(tx *gorm.DB) *gorm.DB { return tx.Order("position") }).
		Preload("Questions.Question.Choices").
		First(&quiz, c.Param("id")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "quiz not found"})
		return
	}
	if user.Role != "ADMIN" {
		if !quizOpenNow(&quiz, time.Now()) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Ce quiz n'est pas disponible"})
			return
		}
		if user.ClassID == nil || quiz.Course.ClassID != *user.ClassID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Ce quiz n'est pas disponible"})
			return
		}
		for i := range quiz.Questions {
			for j := range quiz.Questions[i].Question.Choices {
				quiz.Questions[i].Question.Choices[j].Correct = false
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": quiz})
}

// submitQuizHandler scores an answer sheet. MCQ answers are checked
// against the stored correct choice; OPEN answers are recorded with
// zero points until graded by hand.
func submitQuizHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Utilisateur introuvable"})
		return
	}
	var quiz models.Quiz
	err := db.Preload("Course").
		Preload("Questions.Question.Choices").
		First(&quiz, c.Param("id")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "quiz not found"})
		return
	}
	if user.Role != "ADMIN" {
		if !quizOpenNow(&quiz, time.Now()) || user.ClassID == nil || quiz.Course.ClassID != *user.ClassID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Ce quiz n'est pas disponible"})
			return
		}
	}

	var prior int64
	db.Model(&models.Submission{}).Where("quiz_id = ? AND user_id = ?", quiz.ID, user.ID).Count(&prior)
	if prior > 0 {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Vous avez déjà soumis ce quiz"})
		return
	}

	var req struct {
		Answers []struct {
			QuestionID uint   `json:"questionId" binding:"required"`
			ChoiceID   *uint  `json:"choiceId"`
			TextAnswer string `json:"textAnswer"`
		} `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	type questionInfo struct {
		points  int
		qType   string
		correct map[uint]bool
	}
	byID := make(map[uint]questionInfo, len(quiz.Questions))
	maxScore := 0
	for _, qq := range quiz.Questions {
		info := questionInfo{points: qq.Question.Points, qType: qq.Question.Type, correct: map[uint]bool{}}
		for _, ch := range qq.Question.Choices {
			info.correct[ch.ID] = ch.Correct
		}
		byID[qq.QuestionID] = info
		maxScore += qq.Question.Points
	}

	sub := models.Submission{
		QuizID:      quiz.ID,
		UserID:      user.ID,
		MaxScore:    maxScore,
		SubmittedAt: time.Now(),
	}
	seen := map[uint]bool{}
	for _, a := range req.Answers {
		info, exists := byID[a.QuestionID]
		if !exists || seen[a.QuestionID] {
			continue // ignore answers for questions outside the quiz
		}
		seen[a.QuestionID] = true
		ans := models.SubmissionAnswer{QuestionID: a.QuestionID, ChoiceID: a.ChoiceID, TextAnswer: a.TextAnswer}
		if info.qType == "MCQ" && a.ChoiceID != nil && info.correct[*a.ChoiceID] {
			ans.Correct = true
			sub.Score += info.points
		}
		sub.Answers = append(sub.Answers, ans)
	}

	if err := db.Create(&sub).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Vous avez déjà soumis ce quiz"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "submission failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"submissionId": sub.ID,
			"score":        sub.Score,
			"maxScore":     sub.MaxScore,
		},
	})
}

// listSubmissionsHandler shows a student their own results; admins can
// filter by quiz and see everyone's.
func listSubmissionsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Utilisateur introuvable"})
		return
	}
	q := db.Order("submitted_at desc")
	if user.Role == "ADMIN" {
		if quizID := c.Query("quizId"); quizID != "" {
			q = q.Where("quiz_id = ?", quizID)
		}
	} else {
		q = q.Where("user_id = ?", user.ID)
	}
	var subs []models.Submission
	if err := q.Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": subs})
}
