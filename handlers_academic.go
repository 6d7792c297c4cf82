package main

import (
	"net/http"
	"time"

	"quizbe/models"

	"github.com/gin-gonic/gin"
)

// parseDate accepts RFC 3339 or plain YYYY-MM-DD.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Admin CRUD over the academic structure: years, classes, courses and
// semesters. All routes sit behind adminOnly.

func createYearHandler(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Active bool   `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	year := models.AcademicYear{Name: req.Name, Active: req.Active}
	if err := db.Create(&year).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "year already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "create failed"})
		return
	}
	// One active year at a time keeps class creation unambiguous.
	if req.Active {
		db.Model(&models.AcademicYear{}).Where("id <> ?", year.ID).Update("active", false)
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": year})
}

func listYearsHandler(c *gin.Context) {
	var years []models.AcademicYear
	if err := db.Order("name desc").Find(&years).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": years})
}

func updateYearHandler(c *gin.Context) {
	var year models.AcademicYear
	if err := db.First(&year, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "year not found"})
		return
	}
	var req struct {
		Name   *string `json:"name"`
		Active *bool   `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Name != nil {
		year.Name = *req.Name
	}
	if req.Active != nil {
		year.Active = *req.Active
	}
	if err := db.Save(&year).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
		return
	}
	if year.Active {
		db.Model(&models.AcademicYear{}).Where("id <> ?", year.ID).Update("active", false)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": year})
}

func deleteYearHandler(c *gin.Context) {
	if err := db.Delete(&models.AcademicYear{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func createClassHandler(c *gin.Context) {
	var req struct {
		Name           string `json:"name" binding:"required"`
		Code           string `json:"code" binding:"required"`
		Level          string `json:"level"`
		AcademicYearID uint   `json:"academicYearId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	// Default to the active year when none is given.
	if req.AcademicYearID == 0 {
		var year models.AcademicYear
		if err := db.Where("active = ?", true).First(&year).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no active academic year; pass academicYearId"})
			return
		}
		req.AcademicYearID = year.ID
	}
	class := models.Class{
		Name:           req.Name,
		Code:           req.Code,
		Level:          req.Level,
		AcademicYearID: req.AcademicYearID,
	}
	if err := db.Create(&class).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "class code already used for this year"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": class})
}

func listClassesHandler(c *gin.Context) {
	q := db.Preload("AcademicYear").Order("code")
	if yearID := c.Query("yearId"); yearID != "" {
		q = q.Where("academic_year_id = ?", yearID)
	}
	var classes []models.Class
	if err := q.Find(&classes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": classes})
}

func updateClassHandler(c *gin.Context) {
	var class models.Class
	if err := db.First(&class, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "class not found"})
		return
	}
	var req struct {
		Name  *string `json:"name"`
		Code  *string `json:"code"`
		Level *string `json:"level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.Code != nil {
		class.Code = *req.Code
	}
	if req.Level != nil {
		class.Level = *req.Level
	}
	if err := db.Save(&class).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "class code already used for this year"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": class})
}

func deleteClassHandler(c *gin.Context) {
	if err := db.Delete(&models.Class{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func createCourseHandler(c *gin.Context) {
	var req struct {
		Title      string `json:"title" binding:"required"`
		Code       string `json:"code"`
		ClassID    uint   `json:"classId" binding:"required"`
		SemesterID *uint  `json:"semesterId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	course := models.Course{Title: req.Title, Code: req.Code, ClassID: req.ClassID, SemesterID: req.SemesterID}
	if err := db.Create(&course).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": course})
}

func listCoursesHandler(c *gin.Context) {
	q := db.Preload("Class").Order("title")
	if classID := c.Query("classId"); classID != "" {
		q = q.Where("class_id = ?", classID)
	}
	var courses []models.Course
	if err := q.Find(&courses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": courses})
}

func updateCourseHandler(c *gin.Context) {
	var course models.Course
	if err := db.First(&course, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "course not found"})
		return
	}
	var req struct {
		Title      *string `json:"title"`
		Code       *string `json:"code"`
		SemesterID *uint   `json:"semesterId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Code != nil {
		course.Code = *req.Code
	}
	if req.SemesterID != nil {
		course.SemesterID = req.SemesterID
	}
	if err := db.Save(&course).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": course})
}

func deleteCourseHandler(c *gin.Context) {
	if err := db.Delete(&models.Course{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func createSemesterHandler(c *gin.Context) {
	var req struct {
		Name           string `json:"name" binding:"required"`
		AcademicYearID uint   `json:"academicYearId" binding:"required"`
		StartDate      string `json:"startDate"` // RFC 3339 date
		EndDate        string `json:"endDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	sem := models.Semester{Name: req.Name, AcademicYearID: req.AcademicYearID}
	if t, ok := parseDate(req.StartDate); ok {
		sem.StartDate = t
	}
	if t, ok := parseDate(req.EndDate); ok {
		sem.EndDate = t
	}
	if err := db.Create(&sem).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": sem})
}

func listSemestersHandler(c *gin.Context) {
	q := db.Order("start_date")
	if yearID := c.Query("yearId"); yearID != "" {
		q = q.Where("academic_year_id = ?", yearID)
	}
	var sems []models.Semester
	if err := q.Find(&sems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sems})
}

func updateSemesterHandler(c *gin.Context) {
	var sem models.Semester
	if err := db.First(&sem, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "semester not found"})
		return
	}
	var req struct {
		Name      *string `json:"name"`
		StartDate *string `json:"startDate"`
		EndDate   *string `json:"endDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Name != nil {
		sem.Name = *req.Name
	}
	if req.StartDate != nil {
		if t, ok := parseDate(*req.StartDate); ok {
			sem.StartDate = t
		}
	}
	if req.EndDate != nil {
		if t, ok := parseDate(*req.EndDate); ok {
			sem.EndDate = t
		}
	}
	if err := db.Save(&sem).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sem})
}

func deleteSemesterHandler(c *gin.Context) {
	if err := db.Delete(&models.Semester{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
