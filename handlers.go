package main

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"quizbe/models"
	"quizbe/pkg/cardocr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const maxCardImageBytes = 10 << 20 // 10 MB

var allowedCardTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/auth/login", loginHandler)
	api.POST("/auth/register", registerHandler)
	api.POST("/auth/card-login", cardLoginHandler)
	api.POST("/auth/forgot-password", forgotPasswordHandler)
	api.POST("/auth/reset-password", resetPasswordHandler)
	api.POST("/ocr/recognize", recognizeCardHandler)

	authGroup := api.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/auth/profile", profileHandler)
	authGroup.POST("/auth/change-password", changePasswordHandler)
	authGroup.GET("/quizzes", listQuizzesHandler)
	authGroup.GET("/quizzes/:id", getQuizHandler)
	authGroup.POST("/quizzes/:id/submissions", submitQuizHandler)
	authGroup.GET("/submissions", listSubmissionsHandler)

	admin := authGroup.Group("/admin")
	admin.Use(adminOnly())
	admin.POST("/years", createYearHandler)
	admin.GET("/years", listYearsHandler)
	admin.PUT("/years/:id", updateYearHandler)
	admin.DELETE("/years/:id", deleteYearHandler)
	admin.POST("/classes", createClassHandler)
	admin.GET("/classes", listClassesHandler)
	admin.PUT("/classes/:id", updateClassHandler)
	admin.DELETE("/classes/:id", deleteClassHandler)
	admin.POST("/courses", createCourseHandler)
	admin.GET("/courses", listCoursesHandler)
	admin.PUT("/courses/:id", updateCourseHandler)
	admin.DELETE("/courses/:id", deleteCourseHandler)
	admin.POST("/semesters", createSemesterHandler)
	admin.GET("/semesters", listSemestersHandler)
	admin.PUT("/semesters/:id", updateSemesterHandler)
	admin.DELETE("/semesters/:id", deleteSemesterHandler)
	admin.POST("/questions", createQuestionHandler)
	admin.GET("/questions", listQuestionsHandler)
	admin.PUT("/questions/:id", updateQuestionHandler)
	admin.DELETE("/questions/:id", deleteQuestionHandler)
	admin.POST("/quizzes", createQuizHandler)
	admin.PUT("/quizzes/:id", updateQuizHandler)
	admin.PUT("/quizzes/:id/publish", publishQuizHandler)
	admin.DELETE("/quizzes/:id", deleteQuizHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé, pas de token"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé, token invalide"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé, token invalide"})
			c.Abort()
			return
		}
		id, _ := claims["id"].(float64)
		var user models.User
		if err := db.First(&user, uint(id)).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur introuvable"})
			c.Abort()
			return
		}
		c.Set("userID", user.ID)
		c.Set("role", user.Role)
		c.Next()
	}
}

func adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != "ADMIN" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// getUserFromContext fetches the authenticated user set by jwtAuthMiddleware.
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	idVal, _ := c.Get("userID")
	if idVal == nil {
		return nil, false
	}
	var user models.User
	if err := db.Preload("Class").First(&user, idVal.(uint)).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// publicUser is the account payload shared by password and card login.
func publicUser(u *models.User) gin.H {
	return gin.H{
		"id":        u.ID,
		"email":     u.Email,
		"name":      u.FullName(),
		"role":      strings.ToLower(u.Role),
		"matricule": u.Matricule,
		"classId":   u.ClassID,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}

func loginHandler(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier" binding:"required"` // email or matricule
		Password   string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	user, err := Authenticate(req.Identifier, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Identifiants invalides"})
		return
	}
	token, err := generateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"user": publicUser(&user), "token": token},
	})
}

func registerHandler(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Matricule string `json:"matricule" binding:"required"`
		ClassID   *uint  `json:"classId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	user, err := RegisterStudent(req.Email, req.Password, req.FirstName, req.LastName, req.Matricule, req.ClassID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"user": publicUser(&user)}})
}

func profileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Utilisateur introuvable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"user": publicUser(user)}})
}

func changePasswordHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Utilisateur introuvable"})
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if len(req.NewPassword) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "mot de passe trop court (min 6)"})
		return
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Mot de passe actuel incorrect"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
		return
	}
	if err := db.Model(user).Update("hashed_password", hashed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Mot de passe modifié"})
}

// readCardUpload validates and reads the uploaded card image into memory.
// The bytes live only for the duration of the request.
func readCardUpload(c *gin.Context, field, missingMsg string) ([]byte, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": missingMsg})
		return nil, false
	}
	if fh.Size > maxCardImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Image trop volumineuse (max 10 Mo)"})
		return nil, false
	}
	if ct := fh.Header.Get("Content-Type"); !allowedCardTypes[ct] {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Type de fichier non supporté. Utilisez JPEG, PNG ou WebP."})
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": missingMsg})
		return nil, false
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxCardImageBytes+1))
	if err != nil || int64(len(raw)) > maxCardImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Image trop volumineuse (max 10 Mo)"})
		return nil, false
	}
	return raw, true
}

// pipelineErrorResponse maps stage failures onto one generic 500 without
// leaking internals beyond a short message.
func pipelineErrorResponse(c *gin.Context, err error, outerMsg string) {
	details := "erreur inattendue"
	switch {
	case errors.Is(err, cardocr.ErrImageProcessing):
		details = "Erreur lors du traitement de l'image"
	case errors.Is(err, cardocr.ErrRecognition):
		details = "Erreur lors de la reconnaissance de texte"
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   outerMsg,
		"details": details,
	})
}

// cardLoginHandler authenticates a student from a photo of their card:
// OCR pipeline, user lookup by matricule, fuzzy name check, then a
// regular session token.
func cardLoginHandler(c *gin.Context) {
	raw, ok := readCardUpload(c, "cardImage", "Aucune image de carte fournie")
	if !ok {
		return
	}

	res, err := cardPipeline.Run(c.Request.Context(), raw)
	if err != nil {
		pipelineErrorResponse(c, err, "Erreur serveur lors de l'authentification par carte")
		return
	}

	if !res.Validation.Valid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":       false,
			"error":         "Impossible d'extraire les informations nécessaires de la carte",
			"details":       res.Validation.Errors,
			"extractedData": res.Data,
			"rawText":       res.RawText,
			"cleanedText":   res.CleanedText,
		})
		return
	}

	user, err := findUserByMatricule(res.Data.Matricule)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erreur serveur lors de l'authentification par carte"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success":       false,
			"error":         "Aucun compte trouvé pour ce matricule. Veuillez contacter l'administration.",
			"extractedData": gin.H{"matricule": res.Data.Matricule, "name": res.Data.Name},
		})
		return
	}

	fullName := strings.ToUpper(user.FullName())
	cardName := strings.ToUpper(res.Data.Name)
	if !cardocr.NamesMatch(fullName, cardName, cardPipeline.Match()) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Les informations de la carte ne correspondent pas à celles enregistrées",
			"details": gin.H{"expectedName": fullName, "cardName": cardName},
		})
		return
	}

	token, err := generateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Authentification par carte réussie",
		"data": gin.H{
			"user":  publicUser(user),
			"token": token,
			"cardInfo": gin.H{
				"matricule": res.Data.Matricule,
				"name":      res.Data.Name,
			},
		},
	})
}

// recognizeCardHandler is the diagnostic endpoint: same pipeline, no
// lookup or name check, always echoes raw and cleaned text.
func recognizeCardHandler(c *gin.Context) {
	raw, ok := readCardUpload(c, "image", "Aucune image fournie")
	if !ok {
		return
	}

	res, err := cardPipeline.Run(c.Request.Context(), raw)
	if err != nil {
		pipelineErrorResponse(c, err, "Erreur lors de la reconnaissance de la carte")
		return
	}

	if !res.Validation.Valid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"message": "Données de carte incomplètes ou invalides",
			"errors":  res.Validation.Errors,
			"data": gin.H{
				"matricule":   res.Data.Matricule,
				"name":        res.Data.Name,
				"rawText":     res.RawText,
				"cleanedText": res.CleanedText,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Carte reconnue avec succès",
		"data": gin.H{
			"matricule":   res.Data.Matricule,
			"name":        res.Data.Name,
			"rawText":     res.RawText,
			"cleanedText": res.CleanedText,
		},
	})
}
